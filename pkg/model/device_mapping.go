package model

import "time"

// DeviceMapping links a user to a Traccar GPS device. Only one mapping per
// user may be active at a time - a newly started trip binds to the owner's
// active device so tracker positions can be routed to it.
type DeviceMapping struct {
	UserIdentifier string `json:"-" groups:"internal"`

	TraccarDeviceID int    `json:"traccar_device_id" groups:"basic"`
	DeviceName      string `json:"device_name" groups:"basic"`
	UniqueID        string `json:"unique_id" groups:"basic"`

	IsActive bool `json:"is_active" groups:"basic"`

	CreatedAt time.Time `json:"created_at" groups:"basic"`
}
