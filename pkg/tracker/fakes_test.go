package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/saferide/saferide/pkg/model"
)

// fakeRepository is an in-memory stand-in for every pipeline repository
// interface, so the gateway and detector can be exercised without MongoDB.
type fakeRepository struct {
	mutex sync.Mutex

	trips map[string]*model.Trip
	fixes []model.PositionFix

	routeAlerts []model.RouteAlert
	sosAlerts   []model.SosAlert

	mappings map[string]*model.DeviceMapping

	insertFixErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		trips:    map[string]*model.Trip{},
		mappings: map[string]*model.DeviceMapping{},
	}
}

func (r *fakeRepository) Trip(ctx context.Context, tripIdentifier string) (*model.Trip, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	trip, ok := r.trips[tripIdentifier]
	if !ok {
		return nil, nil
	}

	copied := *trip
	return &copied, nil
}

func (r *fakeRepository) TripByShareUUID(ctx context.Context, shareUUID string) (*model.Trip, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, trip := range r.trips {
		if trip.ShareUUID == shareUUID {
			copied := *trip
			return &copied, nil
		}
	}

	return nil, nil
}

func (r *fakeRepository) ActiveTripForDevice(ctx context.Context, deviceID int) (*model.Trip, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, trip := range r.trips {
		if trip.TraccarDeviceID == deviceID && trip.Status == model.TripStatusOngoing {
			copied := *trip
			return &copied, nil
		}
	}

	return nil, ErrNoActiveTrip
}

func (r *fakeRepository) ActiveDeviceBoundTrips(ctx context.Context) ([]*model.Trip, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	trips := []*model.Trip{}
	for _, trip := range r.trips {
		if trip.TraccarDeviceID != 0 && trip.Status == model.TripStatusOngoing {
			copied := *trip
			trips = append(trips, &copied)
		}
	}

	return trips, nil
}

func (r *fakeRepository) CreateTrip(ctx context.Context, trip *model.Trip) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *trip
	r.trips[trip.PrimaryIdentifier] = &copied

	return nil
}

func (r *fakeRepository) UpdateCurrentPosition(ctx context.Context, tripIdentifier string, position model.Location, recordedAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	trip := r.trips[tripIdentifier]
	trip.CurrentPosition = &position
	trip.LastPositionUpdateAt = &recordedAt

	return nil
}

func (r *fakeRepository) UpdateStatus(ctx context.Context, tripIdentifier string, status model.TripStatus, endedAt *time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	trip := r.trips[tripIdentifier]
	trip.Status = status
	if endedAt != nil {
		trip.EndedAt = endedAt
	}

	return nil
}

func (r *fakeRepository) Exists(ctx context.Context, tripIdentifier string, recordedAt time.Time, latitude float64, longitude float64) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, fix := range r.fixes {
		if fix.TripIdentifier == tripIdentifier && fix.RecordedAt.Equal(recordedAt) &&
			fix.Latitude == latitude && fix.Longitude == longitude {
			return true, nil
		}
	}

	return false, nil
}

func (r *fakeRepository) Insert(ctx context.Context, fix *model.PositionFix) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.insertFixErr != nil {
		return r.insertFixErr
	}

	for _, existing := range r.fixes {
		if existing.TripIdentifier == fix.TripIdentifier && existing.RecordedAt.Equal(fix.RecordedAt) &&
			existing.Latitude == fix.Latitude && existing.Longitude == fix.Longitude {
			return ErrDuplicateFix
		}
	}

	r.fixes = append(r.fixes, *fix)

	return nil
}

func (r *fakeRepository) History(ctx context.Context, tripIdentifier string, from *time.Time, to *time.Time) ([]model.PositionFix, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	history := []model.PositionFix{}
	for _, fix := range r.fixes {
		if fix.TripIdentifier != tripIdentifier {
			continue
		}
		if from != nil && fix.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && fix.RecordedAt.After(*to) {
			continue
		}

		history = append(history, fix)
	}

	return history, nil
}

func (r *fakeRepository) RecentAlertExists(ctx context.Context, tripIdentifier string, alertType model.RouteAlertType, since time.Time) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, alert := range r.routeAlerts {
		if alert.TripIdentifier == tripIdentifier && alert.AlertType == alertType && !alert.CreatedAt.Before(since) {
			return true, nil
		}
	}

	return false, nil
}

func (r *fakeRepository) InsertRouteAlert(ctx context.Context, alert *model.RouteAlert) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.routeAlerts = append(r.routeAlerts, *alert)

	return nil
}

func (r *fakeRepository) InsertSosAlert(ctx context.Context, alert *model.SosAlert) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sosAlerts = append(r.sosAlerts, *alert)

	return nil
}

func (r *fakeRepository) ActiveMappingForUser(ctx context.Context, userIdentifier string) (*model.DeviceMapping, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.mappings[userIdentifier], nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mutex  sync.Mutex
	events []model.Event
}

func (p *fakePublisher) Publish(event model.Event) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) eventsOfType(eventType model.EventType) []model.Event {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	matched := []model.Event{}
	for _, event := range p.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}

	return matched
}
