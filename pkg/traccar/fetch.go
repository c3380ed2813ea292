package traccar

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
	"github.com/saferide/saferide/pkg/tracker"
	"github.com/sourcegraph/conc/pool"
)

const fetchConcurrency = 8

// Fetcher pulls recent positions out of the Traccar server and pushes them
// through the ingestion gateway, covering trips whose devices never call the
// webhook.
type Fetcher struct {
	Client  *Client
	Trips   tracker.TripRepository
	Gateway *tracker.Gateway
}

// SyncAllActiveTrips polls every ongoing device-bound trip in parallel.
func (f *Fetcher) SyncAllActiveTrips(ctx context.Context, window time.Duration) error {
	trips, err := f.Trips.ActiveDeviceBoundTrips(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("trips", len(trips)).Msg("Syncing Traccar positions for active trips")

	fetchPool := pool.New().WithMaxGoroutines(fetchConcurrency)

	for _, trip := range trips {
		trip := trip

		fetchPool.Go(func() {
			if err := f.SyncTrip(ctx, trip, window); err != nil {
				log.Error().
					Err(err).
					Str("trip", trip.PrimaryIdentifier).
					Msg("Failed to sync Traccar positions")
			}
		})
	}

	fetchPool.Wait()

	return nil
}

// SyncTrip fetches positions for one trip's device over the window and
// ingests them.
func (f *Fetcher) SyncTrip(ctx context.Context, trip *model.Trip, window time.Duration) error {
	if trip.TraccarDeviceID == 0 {
		log.Debug().Str("trip", trip.PrimaryIdentifier).Msg("Trip has no Traccar device")
		return nil
	}

	return f.SyncDevice(ctx, trip.TraccarDeviceID, window)
}

// SyncDevice fetches positions for a raw device ID over the window and
// ingests them. The gateway resolves which trip, if any, the device belongs
// to.
func (f *Fetcher) SyncDevice(ctx context.Context, deviceID int, window time.Duration) error {
	now := time.Now()
	positions, err := f.Client.PositionsForTimeRange(ctx, deviceID, now.Add(-window), now)
	if err != nil {
		return err
	}

	if len(positions) == 0 {
		log.Debug().Int("device", deviceID).Msg("No Traccar positions in window")
		return nil
	}

	result, err := f.Gateway.IngestTraccarPositions(ctx, deviceID, positions)
	if err != nil {
		return err
	}

	log.Info().
		Int("device", deviceID).
		Int("submitted", result.Submitted).
		Int("accepted", result.Accepted).
		Msg("Ingested Traccar positions")

	return nil
}
