package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saferide/saferide/pkg/model"
	"github.com/saferide/saferide/pkg/tracker/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(repository *fakeRepository, publisher *fakePublisher) *Gateway {
	return NewGateway(testDetectionConfig(), repository, repository, repository, publisher)
}

func TestIngestClientUpdate(t *testing.T) {
	t.Run("accepted fix advances the projection", func(t *testing.T) {
		repository := newFakeRepository()
		publisher := &fakePublisher{}
		gateway := newTestGateway(repository, publisher)

		trip := ongoingTestTrip()
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		result, err := gateway.IngestClientUpdate(context.Background(), trip.PrimaryIdentifier, "user-1", sources.ClientUpdate{
			Latitude:  23.8110,
			Longitude: 90.4125,
		})
		require.NoError(t, err)

		assert.True(t, result.Accepted)
		require.NotNil(t, result.Fix)
		assert.Equal(t, 23.8110, result.Fix.Latitude)

		stored, err := repository.Trip(context.Background(), trip.PrimaryIdentifier)
		require.NoError(t, err)
		require.NotNil(t, stored.CurrentPosition)
		assert.Equal(t, 23.8110, stored.CurrentPosition.Latitude())
		require.NotNil(t, stored.LastPositionUpdateAt)

		events := publisher.eventsOfType(model.EventTypeTripLocationUpdated)
		require.Len(t, events, 1)

		body := events[0].Body.(model.TripLocationUpdatedEvent)
		assert.Equal(t, trip.PrimaryIdentifier, body.TripIdentifier)
		assert.Equal(t, 23.8110, body.CurrentLatitude)
	})

	t.Run("unknown trip", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		_, err := gateway.IngestClientUpdate(context.Background(), "saferide-trip-missing", "user-1", sources.ClientUpdate{
			Latitude:  23.8110,
			Longitude: 90.4125,
		})

		assert.ErrorIs(t, err, ErrTripNotFound)
	})

	t.Run("rejects another user", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		trip := ongoingTestTrip()
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		_, err := gateway.IngestClientUpdate(context.Background(), trip.PrimaryIdentifier, "user-2", sources.ClientUpdate{
			Latitude:  23.8110,
			Longitude: 90.4125,
		})

		assert.ErrorIs(t, err, ErrNotTripOwner)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		trip := ongoingTestTrip()
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		_, err := gateway.IngestClientUpdate(context.Background(), trip.PrimaryIdentifier, "user-1", sources.ClientUpdate{
			Latitude:  95,
			Longitude: 90.4125,
		})

		assert.True(t, IsValidationError(err))
		assert.Empty(t, repository.fixes)
	})

	t.Run("finished trip is a no-op", func(t *testing.T) {
		repository := newFakeRepository()
		publisher := &fakePublisher{}
		gateway := newTestGateway(repository, publisher)

		trip := ongoingTestTrip()
		trip.Status = model.TripStatusCompleted
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		result, err := gateway.IngestClientUpdate(context.Background(), trip.PrimaryIdentifier, "user-1", sources.ClientUpdate{
			Latitude:  23.8110,
			Longitude: 90.4125,
		})
		require.NoError(t, err)

		assert.False(t, result.Accepted)
		assert.Empty(t, repository.fixes)
		assert.Empty(t, publisher.events)
	})
}

func TestIngestWebhook(t *testing.T) {
	webhookPayload := func(deviceID int, latitude float64, longitude float64, fixTime string) sources.WebhookPayload {
		return sources.WebhookPayload{
			Position: &sources.TraccarPosition{
				DeviceID:  deviceID,
				Latitude:  latitude,
				Longitude: longitude,
				FixTime:   fixTime,
			},
		}
	}

	t.Run("routes the position to the device's trip", func(t *testing.T) {
		repository := newFakeRepository()
		publisher := &fakePublisher{}
		gateway := newTestGateway(repository, publisher)

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		result, err := gateway.IngestWebhook(context.Background(), webhookPayload(7, 23.8110, 90.4125, "2024-05-01T11:58:30Z"))
		require.NoError(t, err)

		assert.True(t, result.Accepted)
		require.Len(t, repository.fixes, 1)
		assert.Equal(t, trip.PrimaryIdentifier, repository.fixes[0].TripIdentifier)
		assert.Equal(t, time.Date(2024, 5, 1, 11, 58, 30, 0, time.UTC), repository.fixes[0].RecordedAt)
	})

	t.Run("no active trip is benign", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		result, err := gateway.IngestWebhook(context.Background(), webhookPayload(99, 23.8110, 90.4125, ""))
		require.NoError(t, err)

		assert.False(t, result.Accepted)
		assert.Equal(t, "no active trip for device", result.Reason)
		assert.Empty(t, repository.fixes)
	})

	t.Run("duplicate submission is acknowledged once", func(t *testing.T) {
		repository := newFakeRepository()
		publisher := &fakePublisher{}
		gateway := newTestGateway(repository, publisher)

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		payload := webhookPayload(7, 23.8110, 90.4125, "2024-05-01T11:58:30Z")

		first, err := gateway.IngestWebhook(context.Background(), payload)
		require.NoError(t, err)
		assert.True(t, first.Accepted)

		second, err := gateway.IngestWebhook(context.Background(), payload)
		require.NoError(t, err)
		assert.False(t, second.Accepted)
		assert.Equal(t, "duplicate fix", second.Reason)

		assert.Len(t, repository.fixes, 1)
		assert.Len(t, publisher.eventsOfType(model.EventTypeTripLocationUpdated), 1)
	})
}

func TestIngestTraccarPositions(t *testing.T) {
	position := func(deviceID int, latitude float64, longitude float64, fixTime string) sources.TraccarPosition {
		return sources.TraccarPosition{
			DeviceID:  deviceID,
			Latitude:  latitude,
			Longitude: longitude,
			FixTime:   fixTime,
		}
	}

	t.Run("batch counts accepted fixes", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		result, err := gateway.IngestTraccarPositions(context.Background(), 7, []sources.TraccarPosition{
			position(7, 23.8110, 90.4125, "2024-05-01T11:58:00Z"),
			position(7, 23.8112, 90.4125, "2024-05-01T11:58:30Z"),
			// repeat of the first sample, as an overlapping fetch window produces
			position(7, 23.8110, 90.4125, "2024-05-01T11:58:00Z"),
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Submitted)
		assert.Equal(t, 2, result.Accepted)
		assert.Len(t, repository.fixes, 2)
	})

	t.Run("malformed positions are skipped", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		result, err := gateway.IngestTraccarPositions(context.Background(), 7, []sources.TraccarPosition{
			position(7, 123, 90.4125, "2024-05-01T11:58:00Z"),
			position(7, 23.8110, 90.4125, "2024-05-01T11:58:30Z"),
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Submitted)
		assert.Equal(t, 1, result.Accepted)
	})

	t.Run("storage failure aborts the batch", func(t *testing.T) {
		repository := newFakeRepository()
		gateway := newTestGateway(repository, &fakePublisher{})

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		repository.insertFixErr = errors.New("connection reset")

		_, err := gateway.IngestTraccarPositions(context.Background(), 7, []sources.TraccarPosition{
			position(7, 23.8110, 90.4125, "2024-05-01T11:58:00Z"),
		})

		assert.Error(t, err)
	})

	t.Run("late fix does not regress the projection", func(t *testing.T) {
		repository := newFakeRepository()
		publisher := &fakePublisher{}
		gateway := newTestGateway(repository, publisher)

		trip := ongoingTestTrip()
		trip.TraccarDeviceID = 7
		require.NoError(t, repository.CreateTrip(context.Background(), trip))

		_, err := gateway.IngestTraccarPositions(context.Background(), 7, []sources.TraccarPosition{
			position(7, 23.8115, 90.4125, "2024-05-01T11:59:00Z"),
			position(7, 23.8110, 90.4125, "2024-05-01T11:58:00Z"),
		})
		require.NoError(t, err)

		// both fixes kept in history
		assert.Len(t, repository.fixes, 2)

		stored, err := repository.Trip(context.Background(), trip.PrimaryIdentifier)
		require.NoError(t, err)
		assert.Equal(t, 23.8115, stored.CurrentPosition.Latitude())
		assert.Equal(t, time.Date(2024, 5, 1, 11, 59, 0, 0, time.UTC), stored.LastPositionUpdateAt.UTC())

		// the broadcast for the late fix carries the projection's position
		events := publisher.eventsOfType(model.EventTypeTripLocationUpdated)
		require.Len(t, events, 2)

		lateBody := events[1].Body.(model.TripLocationUpdatedEvent)
		assert.Equal(t, 23.8115, lateBody.CurrentLatitude)
		assert.Equal(t, 23.8110, lateBody.LatestFix.Latitude)
	})
}
