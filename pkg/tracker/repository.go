package tracker

import (
	"context"
	"time"

	"github.com/saferide/saferide/pkg/model"
)

// TripRepository owns trip records and the current-position projection.
type TripRepository interface {
	Trip(ctx context.Context, tripIdentifier string) (*model.Trip, error)
	TripByShareUUID(ctx context.Context, shareUUID string) (*model.Trip, error)

	// ActiveTripForDevice returns the ongoing trip bound to a tracker device,
	// or ErrNoActiveTrip.
	ActiveTripForDevice(ctx context.Context, deviceID int) (*model.Trip, error)

	// ActiveDeviceBoundTrips returns every ongoing trip that has a tracker
	// device attached.
	ActiveDeviceBoundTrips(ctx context.Context) ([]*model.Trip, error)

	CreateTrip(ctx context.Context, trip *model.Trip) error

	// UpdateCurrentPosition moves the trip's current-position projection and
	// its last position update timestamp.
	UpdateCurrentPosition(ctx context.Context, tripIdentifier string, position model.Location, recordedAt time.Time) error

	UpdateStatus(ctx context.Context, tripIdentifier string, status model.TripStatus, endedAt *time.Time) error
}

// FixRepository owns the append-only position history of trips.
type FixRepository interface {
	Exists(ctx context.Context, tripIdentifier string, recordedAt time.Time, latitude float64, longitude float64) (bool, error)

	// Insert persists a fix. ErrDuplicateFix is returned when the store's
	// uniqueness constraint rejects it.
	Insert(ctx context.Context, fix *model.PositionFix) error

	History(ctx context.Context, tripIdentifier string, from *time.Time, to *time.Time) ([]model.PositionFix, error)
}

// AlertRepository owns the route alert log and SOS alert creation.
type AlertRepository interface {
	RecentAlertExists(ctx context.Context, tripIdentifier string, alertType model.RouteAlertType, since time.Time) (bool, error)

	InsertRouteAlert(ctx context.Context, alert *model.RouteAlert) error
	InsertSosAlert(ctx context.Context, alert *model.SosAlert) error
}

// DeviceMappingRepository resolves a user's active tracker device.
type DeviceMappingRepository interface {
	ActiveMappingForUser(ctx context.Context, userIdentifier string) (*model.DeviceMapping, error)
}

// Publisher is the broadcast sink. Delivery mechanics live outside this
// subsystem.
type Publisher interface {
	Publish(event model.Event) error
}
