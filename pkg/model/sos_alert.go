package model

import "time"

// SosAlert is an emergency alert attributed to a user. The pipeline only
// creates these automatically when configured to escalate route anomalies -
// dispatch and resolution belong to the surrounding product.
type SosAlert struct {
	UserIdentifier string `json:"user_id" groups:"internal"`
	TripIdentifier string `json:"trip_id" groups:"basic"`

	Location Location `json:"location" groups:"basic"`

	Message string `json:"message" groups:"basic"`

	CreatedAt  time.Time  `json:"created_at" groups:"basic"`
	ResolvedAt *time.Time `json:"resolved_at" groups:"basic"`

	ResponderIdentifier string `json:"-" groups:"internal"`
}
