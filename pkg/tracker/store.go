package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
)

// TrajectoryStore owns the ordered fix history of each trip and the trip's
// current-position projection.
type TrajectoryStore struct {
	trips TripRepository
	fixes FixRepository
}

func NewTrajectoryStore(trips TripRepository, fixes FixRepository) *TrajectoryStore {
	return &TrajectoryStore{trips: trips, fixes: fixes}
}

// AppendFix persists a fix that has already cleared the deduplicator, then
// advances the trip's current-position projection. The fix row is written
// first - a storage failure can leave a fix without a projection update for
// the caller to retry, but never a projection pointing at a missing fix.
//
// The projection is monotonic by recorded time: a late-arriving older fix is
// kept in history but does not regress the current view.
func (s *TrajectoryStore) AppendFix(ctx context.Context, trip *model.Trip, fix *model.PositionFix) error {
	if err := s.fixes.Insert(ctx, fix); err != nil {
		return err
	}

	if !trip.IsOngoing() {
		return nil
	}

	if trip.LastPositionUpdateAt != nil && fix.RecordedAt.Before(*trip.LastPositionUpdateAt) {
		log.Debug().
			Str("trip", trip.PrimaryIdentifier).
			Time("recordedat", fix.RecordedAt).
			Time("lastupdate", *trip.LastPositionUpdateAt).
			Msg("Out of order fix kept in history only")

		return nil
	}

	return s.trips.UpdateCurrentPosition(ctx, trip.PrimaryIdentifier, fix.Location(), fix.RecordedAt)
}

// History returns the trip's accepted fixes ascending by recorded time,
// optionally bounded to [from, to].
func (s *TrajectoryStore) History(ctx context.Context, tripIdentifier string, from *time.Time, to *time.Time) ([]model.PositionFix, error) {
	return s.fixes.History(ctx, tripIdentifier, from, to)
}
