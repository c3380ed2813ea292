package sources

import "fmt"

// ValidationError marks a malformed or out-of-range payload. Normalization
// raises it before the pipeline touches any state, so a failed submission is
// never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var errInvalidLatitude = &ValidationError{Field: "latitude", Reason: "must be a number between -90 and 90"}
var errInvalidLongitude = &ValidationError{Field: "longitude", Reason: "must be a number between -180 and 180"}
