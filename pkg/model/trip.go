package model

import "time"

type TripStatus string

const (
	TripStatusOngoing   TripStatus = "ongoing"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip is a journey in progress or finished. CurrentPosition always reflects
// the most recently recorded fix (by device clock) while the trip is ongoing
// and is frozen once the trip leaves that status.
type Trip struct {
	PrimaryIdentifier string `json:"primary_identifier" groups:"basic"`
	UserIdentifier    string `json:"-" groups:"internal"`

	ShareUUID string `json:"share_uuid" groups:"basic"`

	Origin      Location `json:"origin" groups:"basic"`
	Destination Location `json:"destination" groups:"basic"`

	DestinationAddress string `json:"destination_address,omitempty" groups:"basic"`

	CurrentPosition *Location `json:"current_position" groups:"basic"`

	Status TripStatus `json:"status" groups:"basic"`

	StartedAt            time.Time  `json:"started_at" groups:"basic"`
	EndedAt              *time.Time `json:"ended_at" groups:"basic"`
	LastPositionUpdateAt *time.Time `json:"last_position_update_at" groups:"basic"`

	// Identifier of the external tracker device bound to this trip, zero when
	// the trip only receives client submitted positions.
	TraccarDeviceID int `json:"-" groups:"internal"`
}

func (t *Trip) IsOngoing() bool {
	return t.Status == TripStatusOngoing
}
