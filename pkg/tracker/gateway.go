package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
	"github.com/saferide/saferide/pkg/redis_client"
	"github.com/saferide/saferide/pkg/tracker/sources"
)

const deviceCacheExpiration = 2 * time.Minute

// Gateway is the single funnel every position source submits through. It
// normalizes the source payloads into canonical fixes and drives the
// deduplicate, append, detect, debounce and broadcast sequence.
//
// That sequence is serialized per trip with a keyed mutex - two
// near-simultaneous submissions for the same trip must not both pass the
// duplicate check, and the debouncer's read-then-create pattern only holds
// under that serialization. Different trips proceed concurrently.
type Gateway struct {
	trips TripRepository

	store     *TrajectoryStore
	dedupe    *Deduplicator
	detector  *Detector
	publisher Publisher

	deviceCache *cache.Cache[string]

	tripLocks keyedMutex
}

// IngestResult is the outcome of one submission. A rejected duplicate is an
// accepted-but-ignored outcome, not an error.
type IngestResult struct {
	Accepted bool
	Fix      *model.PositionFix
	Alerts   []model.RouteAlert
	Reason   string
}

// BatchResult summarises a polling fetch submission.
type BatchResult struct {
	Submitted int
	Accepted  int
}

func NewGateway(config DetectionConfig, trips TripRepository, fixes FixRepository, alerts AlertRepository, publisher Publisher) *Gateway {
	debouncer := NewDebouncer(alerts, config)

	return &Gateway{
		trips:     trips,
		store:     NewTrajectoryStore(trips, fixes),
		dedupe:    NewDeduplicator(fixes),
		detector:  NewDetector(config, alerts, debouncer, publisher),
		publisher: publisher,
	}
}

// CreateDeviceCache attaches the redis backed device to trip resolution
// cache. Without it every tracker submission resolves through the database.
func (g *Gateway) CreateDeviceCache() {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(deviceCacheExpiration))

	g.deviceCache = cache.New[string](redisStore)
}

// Store exposes the trajectory store for history queries.
func (g *Gateway) Store() *TrajectoryStore {
	return g.store
}

// IngestClientUpdate handles a position the trip owner pushed directly. The
// client has no device clock worth trusting, so the server receive time
// becomes the recorded time.
func (g *Gateway) IngestClientUpdate(ctx context.Context, tripIdentifier string, userIdentifier string, payload sources.ClientUpdate) (IngestResult, error) {
	trip, err := g.trips.Trip(ctx, tripIdentifier)
	if err != nil {
		return IngestResult{}, err
	}
	if trip == nil {
		return IngestResult{}, ErrTripNotFound
	}
	if trip.UserIdentifier != userIdentifier {
		return IngestResult{}, ErrNotTripOwner
	}
	if !trip.IsOngoing() {
		log.Info().Str("trip", tripIdentifier).Msg("Ignoring client position for finished trip")
		return IngestResult{Reason: "trip is not ongoing"}, nil
	}

	fix, err := payload.Normalize(tripIdentifier, time.Now())
	if err != nil {
		return IngestResult{}, err
	}

	return g.ingest(ctx, trip.PrimaryIdentifier, fix)
}

// IngestWebhook handles a Traccar position push. A device with no ongoing
// trip is a benign no-op - the tracker keeps reporting between trips and
// must not be made to retry.
func (g *Gateway) IngestWebhook(ctx context.Context, payload sources.WebhookPayload) (IngestResult, error) {
	deviceID, err := payload.DeviceID()
	if err != nil {
		return IngestResult{}, err
	}

	trip, err := g.resolveTripForDevice(ctx, deviceID)
	if err == ErrNoActiveTrip {
		log.Debug().Int("device", deviceID).Msg("Webhook position for device with no active trip")
		return IngestResult{Reason: "no active trip for device"}, nil
	}
	if err != nil {
		return IngestResult{}, err
	}

	fix, err := payload.Normalize(trip.PrimaryIdentifier, time.Now())
	if err != nil {
		return IngestResult{}, err
	}

	return g.ingest(ctx, trip.PrimaryIdentifier, fix)
}

// IngestTraccarPositions handles a polling fetch batch for one device.
// Malformed positions are skipped with a logged reason, duplicates are
// counted as not accepted, and the first storage failure aborts the batch
// for the caller to retry.
func (g *Gateway) IngestTraccarPositions(ctx context.Context, deviceID int, positions []sources.TraccarPosition) (BatchResult, error) {
	result := BatchResult{Submitted: len(positions)}

	trip, err := g.resolveTripForDevice(ctx, deviceID)
	if err == ErrNoActiveTrip {
		log.Debug().Int("device", deviceID).Msg("Fetched positions for device with no active trip")
		return result, nil
	}
	if err != nil {
		return result, err
	}

	receivedAt := time.Now()

	for _, position := range positions {
		fix, err := position.Normalize(trip.PrimaryIdentifier, receivedAt)
		if err != nil {
			log.Warn().Err(err).Int("device", deviceID).Msg("Skipping malformed fetched position")
			continue
		}

		ingestResult, err := g.ingest(ctx, trip.PrimaryIdentifier, fix)
		if err != nil {
			return result, err
		}
		if ingestResult.Accepted {
			result.Accepted++
		}
	}

	return result, nil
}

func (g *Gateway) ingest(ctx context.Context, tripIdentifier string, fix *model.PositionFix) (IngestResult, error) {
	unlock := g.tripLocks.lock(tripIdentifier)
	defer unlock()

	// Reload inside the lock so the detector sees the projection state left
	// by the previous serialized submission, not a stale read.
	trip, err := g.trips.Trip(ctx, tripIdentifier)
	if err != nil {
		return IngestResult{}, err
	}
	if trip == nil {
		return IngestResult{}, ErrTripNotFound
	}

	duplicate, err := g.dedupe.IsDuplicate(ctx, fix)
	if err != nil {
		return IngestResult{}, err
	}
	if duplicate {
		log.Debug().Str("trip", tripIdentifier).Time("recordedat", fix.RecordedAt).Msg("Skipping duplicate fix")
		return IngestResult{Reason: "duplicate fix"}, nil
	}

	if err := g.store.AppendFix(ctx, trip, fix); err != nil {
		if err == ErrDuplicateFix {
			// Lost the uniqueness race against another process. Same outcome
			// as the dedupe check catching it.
			return IngestResult{Reason: "duplicate fix"}, nil
		}

		return IngestResult{}, err
	}

	alerts, err := g.detector.Evaluate(ctx, trip, fix)
	if err != nil {
		return IngestResult{}, err
	}

	g.broadcastLocationUpdate(trip, fix)

	return IngestResult{Accepted: true, Fix: fix, Alerts: alerts}, nil
}

func (g *Gateway) broadcastLocationUpdate(trip *model.Trip, fix *model.PositionFix) {
	currentPosition := fix.Location()
	if trip.LastPositionUpdateAt != nil && fix.RecordedAt.Before(*trip.LastPositionUpdateAt) && trip.CurrentPosition != nil {
		// The projection did not move for this late fix, broadcast the
		// position it kept.
		currentPosition = *trip.CurrentPosition
	}

	var latestFix model.PositionFix
	if err := copier.Copy(&latestFix, fix); err != nil {
		latestFix = *fix
	}

	event := model.Event{
		Type:      model.EventTypeTripLocationUpdated,
		Timestamp: time.Now(),
		Body: model.TripLocationUpdatedEvent{
			TripIdentifier:   trip.PrimaryIdentifier,
			CurrentLatitude:  currentPosition.Latitude(),
			CurrentLongitude: currentPosition.Longitude(),
			LatestFix:        latestFix,
			Status:           trip.Status,
			Timestamp:        time.Now(),
		},
	}

	if err := g.publisher.Publish(event); err != nil {
		log.Error().Err(err).Str("trip", trip.PrimaryIdentifier).Msg("Failed to publish location update event")
	}
}

func (g *Gateway) resolveTripForDevice(ctx context.Context, deviceID int) (*model.Trip, error) {
	cacheKey := fmt.Sprintf("device-trip-%d", deviceID)

	if g.deviceCache != nil {
		cachedTripID, _ := g.deviceCache.Get(ctx, cacheKey)

		if cachedTripID == "N/A" {
			return nil, ErrNoActiveTrip
		}

		if cachedTripID != "" {
			trip, err := g.trips.Trip(ctx, cachedTripID)
			if err == nil && trip != nil && trip.IsOngoing() {
				return trip, nil
			}
		}
	}

	trip, err := g.trips.ActiveTripForDevice(ctx, deviceID)
	if err == ErrNoActiveTrip {
		if g.deviceCache != nil {
			// Negative marker stops us rechecking the database for every
			// report from an unbound device.
			g.deviceCache.Set(ctx, cacheKey, "N/A")
		}

		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if g.deviceCache != nil {
		g.deviceCache.Set(ctx, cacheKey, trip.PrimaryIdentifier)
	}

	return trip, nil
}

// keyedMutex hands out one mutex per trip identifier. Entries are never
// evicted - the map is bounded by the number of trips a process has touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	lock := k.locks[key]
	if lock == nil {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
