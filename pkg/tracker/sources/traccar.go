package sources

import (
	"time"

	"github.com/saferide/saferide/pkg/model"
)

// TraccarPosition is one position object as the Traccar API and its webhook
// both represent it. The device's own fixTime is the authoritative recorded
// time for these sources.
type TraccarPosition struct {
	ID       int    `json:"id"`
	DeviceID int    `json:"deviceId"`
	Protocol string `json:"protocol"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Accuracy *float64 `json:"accuracy"`
	Speed    *float64 `json:"speed"`
	Altitude *float64 `json:"altitude"`
	Course   *float64 `json:"course"`

	ServerTime string `json:"serverTime"`
	DeviceTime string `json:"deviceTime"`
	FixTime    string `json:"fixTime"`
}

func (p TraccarPosition) Normalize(tripIdentifier string, receivedAt time.Time) (*model.PositionFix, error) {
	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return nil, err
	}

	recordedAt := receivedAt
	if p.FixTime != "" {
		parsed, err := time.Parse(time.RFC3339, p.FixTime)
		if err != nil {
			return nil, &ValidationError{Field: "fixTime", Reason: "must be an RFC 3339 timestamp"}
		}
		recordedAt = parsed
	}

	return &model.PositionFix{
		TripIdentifier: tripIdentifier,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Accuracy:       p.Accuracy,
		Speed:          p.Speed,
		Altitude:       p.Altitude,
		Bearing:        p.Course,
		RecordedAt:     recordedAt,
		IngestedAt:     receivedAt,
	}, nil
}

// WebhookPayload is the JSON body Traccar posts on position events.
type WebhookPayload struct {
	Event *struct {
		Type string `json:"type"`
	} `json:"event"`

	Position *TraccarPosition `json:"position"`

	Device *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"device"`
}

// DeviceID resolves the reporting device, preferring the position's own
// reference over the device envelope.
func (w WebhookPayload) DeviceID() (int, error) {
	if w.Position != nil && w.Position.DeviceID != 0 {
		return w.Position.DeviceID, nil
	}
	if w.Device != nil && w.Device.ID != 0 {
		return w.Device.ID, nil
	}

	return 0, &ValidationError{Field: "deviceId", Reason: "missing from position and device"}
}

func (w WebhookPayload) Normalize(tripIdentifier string, receivedAt time.Time) (*model.PositionFix, error) {
	if w.Position == nil {
		return nil, &ValidationError{Field: "position", Reason: "missing"}
	}

	return w.Position.Normalize(tripIdentifier, receivedAt)
}
