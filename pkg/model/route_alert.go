package model

import "time"

type RouteAlertType string

const (
	RouteAlertTypeStoppage  RouteAlertType = "stoppage"
	RouteAlertTypeDeviation RouteAlertType = "deviation"
)

// RouteAlert records a detected safety anomaly on a trip. Alerts are created
// once and never mutated.
type RouteAlert struct {
	TripIdentifier string `json:"trip_id" groups:"basic"`

	AlertType RouteAlertType `json:"alert_type" groups:"basic"`

	Details RouteAlertDetails `json:"details" groups:"basic"`

	CreatedAt time.Time `json:"created_at" groups:"basic"`
}

// RouteAlertDetails carries the measured figures behind an alert. Stoppage
// alerts populate the distance/time pair, deviation alerts the deviation
// distance. All distances are rounded to 2 decimal places at creation.
type RouteAlertDetails struct {
	DistanceMovedM     float64 `json:"distance_moved_m,omitempty" bson:"distancemovedm,omitempty" groups:"basic"`
	TimeStoppedMinutes int     `json:"time_stopped_minutes,omitempty" bson:"timestoppedminutes,omitempty" groups:"basic"`

	DeviationDistanceKm float64 `json:"deviation_distance_km,omitempty" bson:"deviationdistancekm,omitempty" groups:"basic"`
	ThresholdKm         float64 `json:"threshold_km,omitempty" bson:"thresholdkm,omitempty" groups:"basic"`

	Location Location `json:"location" groups:"basic"`
}
