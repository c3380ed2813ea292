package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
)

// Detector evaluates the stoppage and deviation rules against every newly
// accepted fix.
type Detector struct {
	config DetectionConfig

	alerts    AlertRepository
	debouncer *Debouncer
	publisher Publisher
}

func NewDetector(config DetectionConfig, alerts AlertRepository, debouncer *Debouncer, publisher Publisher) *Detector {
	return &Detector{
		config:    config,
		alerts:    alerts,
		debouncer: debouncer,
		publisher: publisher,
	}
}

// Evaluate runs both anomaly rules for a fix. trip must carry the state from
// before the fix advanced the projection - the stoppage rule compares the new
// position against the previous current position and measures elapsed time
// from the previous update. Returns the alerts that passed debounce and were
// created.
func (d *Detector) Evaluate(ctx context.Context, trip *model.Trip, fix *model.PositionFix) ([]model.RouteAlert, error) {
	var createdAlerts []model.RouteAlert

	stoppageAlert, err := d.detectStoppage(ctx, trip, fix)
	if err != nil {
		return createdAlerts, err
	}
	if stoppageAlert != nil {
		createdAlerts = append(createdAlerts, *stoppageAlert)
	}

	deviationAlert, err := d.detectDeviation(ctx, trip, fix)
	if err != nil {
		return createdAlerts, err
	}
	if deviationAlert != nil {
		createdAlerts = append(createdAlerts, *deviationAlert)
	}

	return createdAlerts, nil
}

// detectStoppage fires when the trip has moved no more than the distance
// threshold while at least the time threshold has passed since the previous
// processed update. The elapsed time is wall clock between server processed
// updates, not the gap between device timestamps. A trip's very first fix is
// exempt.
func (d *Detector) detectStoppage(ctx context.Context, trip *model.Trip, fix *model.PositionFix) (*model.RouteAlert, error) {
	if trip.LastPositionUpdateAt == nil || trip.CurrentPosition == nil {
		return nil, nil
	}

	distanceMovedM := trip.CurrentPosition.Distance(fix.Location()) * 1000
	minutesSinceUpdate := int(time.Since(*trip.LastPositionUpdateAt).Minutes())

	if distanceMovedM > d.config.StoppageDistanceThresholdM || minutesSinceUpdate < d.config.StoppageTimeThresholdMinutes {
		return nil, nil
	}

	details := model.RouteAlertDetails{
		DistanceMovedM:     roundTo2(distanceMovedM),
		TimeStoppedMinutes: minutesSinceUpdate,
		Location:           fix.Location(),
	}

	return d.createRouteAlert(ctx, trip, model.RouteAlertTypeStoppage, details)
}

// detectDeviation fires when the fix sits further from the origin to
// destination great-circle path than the deviation threshold. Evaluated on
// every fix, first ones included.
func (d *Detector) detectDeviation(ctx context.Context, trip *model.Trip, fix *model.PositionFix) (*model.RouteAlert, error) {
	deviationKm := fix.Location().CrossTrackDistance(trip.Origin, trip.Destination)

	if deviationKm <= d.config.DeviationThresholdKm {
		return nil, nil
	}

	details := model.RouteAlertDetails{
		DeviationDistanceKm: roundTo2(deviationKm),
		ThresholdKm:         d.config.DeviationThresholdKm,
		Location:            fix.Location(),
	}

	return d.createRouteAlert(ctx, trip, model.RouteAlertTypeDeviation, details)
}

func (d *Detector) createRouteAlert(ctx context.Context, trip *model.Trip, alertType model.RouteAlertType, details model.RouteAlertDetails) (*model.RouteAlert, error) {
	allowed, err := d.debouncer.Allow(ctx, trip.PrimaryIdentifier, alertType)
	if err != nil {
		return nil, err
	}
	if !allowed {
		log.Debug().
			Str("trip", trip.PrimaryIdentifier).
			Str("alerttype", string(alertType)).
			Msg("Alert suppressed by cooldown")

		return nil, nil
	}

	alert := &model.RouteAlert{
		TripIdentifier: trip.PrimaryIdentifier,
		AlertType:      alertType,
		Details:        details,
		CreatedAt:      time.Now(),
	}

	if err := d.alerts.InsertRouteAlert(ctx, alert); err != nil {
		return nil, err
	}

	log.Info().
		Str("trip", trip.PrimaryIdentifier).
		Str("alerttype", string(alertType)).
		Msg("Route alert created")

	if err := d.publisher.Publish(model.Event{
		Type:      model.EventTypeRouteAlertCreated,
		Timestamp: alert.CreatedAt,
		Body: model.RouteAlertCreatedEvent{
			TripIdentifier: trip.PrimaryIdentifier,
			AlertType:      alertType,
			Details:        details,
		},
	}); err != nil {
		log.Error().Err(err).Str("trip", trip.PrimaryIdentifier).Msg("Failed to publish route alert event")
	}

	if d.config.AutoCreateSosOnAnomaly {
		if err := d.createSosAlert(ctx, trip, alertType, details); err != nil {
			return nil, err
		}
	}

	return alert, nil
}

func (d *Detector) createSosAlert(ctx context.Context, trip *model.Trip, alertType model.RouteAlertType, details model.RouteAlertDetails) error {
	var message string
	if alertType == model.RouteAlertTypeStoppage {
		message = fmt.Sprintf("Automatic alert: Trip stopped for %d minutes", details.TimeStoppedMinutes)
	} else {
		message = fmt.Sprintf("Automatic alert: Route deviation of %g km detected", details.DeviationDistanceKm)
	}

	sosAlert := &model.SosAlert{
		UserIdentifier: trip.UserIdentifier,
		TripIdentifier: trip.PrimaryIdentifier,
		Location:       details.Location,
		Message:        message,
		CreatedAt:      time.Now(),
	}

	if err := d.alerts.InsertSosAlert(ctx, sosAlert); err != nil {
		return err
	}

	log.Info().
		Str("trip", trip.PrimaryIdentifier).
		Str("user", trip.UserIdentifier).
		Msg("SOS alert auto created")

	if err := d.publisher.Publish(model.Event{
		Type:      model.EventTypeSosAlertCreated,
		Timestamp: sosAlert.CreatedAt,
		Body: model.SosAlertCreatedEvent{
			TripIdentifier: trip.PrimaryIdentifier,
			UserIdentifier: trip.UserIdentifier,
			Location:       details.Location,
			Message:        message,
		},
	}); err != nil {
		log.Error().Err(err).Str("trip", trip.PrimaryIdentifier).Msg("Failed to publish SOS event")
	}

	return nil
}

func roundTo2(value float64) float64 {
	return math.Round(value*100) / 100
}
