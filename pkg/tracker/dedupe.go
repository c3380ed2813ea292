package tracker

import (
	"context"

	"github.com/saferide/saferide/pkg/model"
)

// Deduplicator decides whether a candidate fix is already recorded for a
// trip. The same physical sample routinely arrives twice - once over the
// webhook and again in a later polling fetch covering the same window.
type Deduplicator struct {
	fixes FixRepository
}

func NewDeduplicator(fixes FixRepository) *Deduplicator {
	return &Deduplicator{fixes: fixes}
}

// IsDuplicate reports whether a fix with the identical
// (trip, recorded at, latitude, longitude) tuple already exists. It has no
// side effects.
func (d *Deduplicator) IsDuplicate(ctx context.Context, fix *model.PositionFix) (bool, error) {
	return d.fixes.Exists(ctx, fix.TripIdentifier, fix.RecordedAt, fix.Latitude, fix.Longitude)
}
