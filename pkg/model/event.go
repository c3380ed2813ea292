package model

import (
	"fmt"
	"time"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Body      interface{}
}

type EventType string

const (
	EventTypeTripLocationUpdated EventType = "TripLocationUpdated"
	EventTypeRouteAlertCreated   EventType = "RouteAlertCreated"
	EventTypeSosAlertCreated     EventType = "SosAlertCreated"
)

// TripLocationUpdatedEvent is published to subscribers on every accepted fix.
type TripLocationUpdatedEvent struct {
	TripIdentifier string `json:"trip_id"`

	CurrentLatitude  float64 `json:"current_lat"`
	CurrentLongitude float64 `json:"current_lng"`

	LatestFix PositionFix `json:"latest_fix"`

	Status TripStatus `json:"status"`

	Timestamp time.Time `json:"timestamp"`
}

// RouteAlertCreatedEvent is published when an anomaly passes debounce.
type RouteAlertCreatedEvent struct {
	TripIdentifier string            `json:"trip_id"`
	AlertType      RouteAlertType    `json:"alert_type"`
	Details        RouteAlertDetails `json:"details"`
}

type SosAlertCreatedEvent struct {
	TripIdentifier string   `json:"trip_id"`
	UserIdentifier string   `json:"user_id"`
	Location       Location `json:"location"`
	Message        string   `json:"message"`
}

func (e *Event) GetNotificationData() EventNotificationData {
	eventNotificationData := EventNotificationData{}

	eventBody, ok := e.Body.(map[string]interface{})
	if !ok {
		return eventNotificationData
	}

	switch e.Type {
	case EventTypeRouteAlertCreated:
		alertType, _ := eventBody["alert_type"].(string)
		details, _ := eventBody["details"].(map[string]interface{})

		switch RouteAlertType(alertType) {
		case RouteAlertTypeStoppage:
			eventNotificationData.Title = "Trip stopped"
			if details != nil {
				eventNotificationData.Message = fmt.Sprintf("Trip has not moved for %v minutes", details["time_stopped_minutes"])
			}
		case RouteAlertTypeDeviation:
			eventNotificationData.Title = "Route deviation"
			if details != nil {
				eventNotificationData.Message = fmt.Sprintf("Trip is %v km off the planned route", details["deviation_distance_km"])
			}
		}
	case EventTypeSosAlertCreated:
		eventNotificationData.Title = "SOS alert"
		eventNotificationData.Message, _ = eventBody["message"].(string)
	}

	return eventNotificationData
}

type EventNotificationData struct {
	Title   string
	Message string
}
