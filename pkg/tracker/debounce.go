package tracker

import (
	"context"
	"time"

	"github.com/saferide/saferide/pkg/model"
)

// Debouncer suppresses repeat alerts of the same type on the same trip
// within that type's cooldown window. It is a read-then-create check over
// the alert log, which is only safe because ingestion is serialized per
// trip - see Gateway.
type Debouncer struct {
	alerts AlertRepository
	config DetectionConfig
}

func NewDebouncer(alerts AlertRepository, config DetectionConfig) *Debouncer {
	return &Debouncer{alerts: alerts, config: config}
}

// Allow reports whether a new alert of alertType may be created for the
// trip. It returns false when an alert of that type exists within the
// cooldown window.
func (d *Debouncer) Allow(ctx context.Context, tripIdentifier string, alertType model.RouteAlertType) (bool, error) {
	since := time.Now().Add(-d.config.Cooldown(alertType))

	exists, err := d.alerts.RecentAlertExists(ctx, tripIdentifier, alertType, since)
	if err != nil {
		return false, err
	}

	return !exists, nil
}
