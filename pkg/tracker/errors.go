package tracker

import (
	"errors"

	"github.com/saferide/saferide/pkg/tracker/sources"
)

// ErrNoActiveTrip is a benign lookup miss - a device reported positions but
// no ongoing trip is bound to it. Automated sources must not retry on it.
var ErrNoActiveTrip = errors.New("no active trip for device")

// ErrNotTripOwner rejects a client position update from anyone but the trip
// owner.
var ErrNotTripOwner = errors.New("caller does not own trip")

// ErrTripNotFound is returned when a trip reference cannot be resolved at all.
var ErrTripNotFound = errors.New("trip not found")

// ErrDuplicateFix is not a failure - the store already holds this physical
// sample and the submission is acknowledged without side effects.
var ErrDuplicateFix = errors.New("duplicate position fix")

// ValidationError is raised by payload normalization, see the sources
// package.
type ValidationError = sources.ValidationError

// IsValidationError reports whether err is a payload validation failure.
func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}
