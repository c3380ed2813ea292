package model

import "time"

// PositionFix is a single GPS sample for a trip. A fix is identified by the
// (trip, recorded at, latitude, longitude) tuple - two fixes sharing that
// tuple are the same physical sample no matter which source delivered them.
// Fixes are append only and never mutated after creation.
type PositionFix struct {
	TripIdentifier string `json:"trip_id" groups:"basic"`

	Latitude  float64 `json:"latitude" groups:"basic"`
	Longitude float64 `json:"longitude" groups:"basic"`

	Accuracy *float64 `json:"accuracy,omitempty" groups:"basic"`
	Speed    *float64 `json:"speed,omitempty" groups:"basic"`
	Altitude *float64 `json:"altitude,omitempty" groups:"basic"`
	Bearing  *float64 `json:"bearing,omitempty" groups:"basic"`

	// RecordedAt is the device clock timestamp and the authoritative ordering
	// key. IngestedAt is when the pipeline processed the fix, informational
	// only.
	RecordedAt time.Time `json:"recorded_at" groups:"basic"`
	IngestedAt time.Time `json:"ingested_at" groups:"internal"`
}

func (f *PositionFix) Location() Location {
	return NewLocation(f.Latitude, f.Longitude)
}
