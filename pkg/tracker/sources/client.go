package sources

import (
	"math"
	"time"

	"github.com/saferide/saferide/pkg/model"
)

// ClientUpdate is a position submitted directly by the trip owner's browser
// or app. Client devices report no fix timestamp, so the server receive time
// becomes the recorded time.
type ClientUpdate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (u ClientUpdate) Normalize(tripIdentifier string, receivedAt time.Time) (*model.PositionFix, error) {
	if err := validateCoordinates(u.Latitude, u.Longitude); err != nil {
		return nil, err
	}

	return &model.PositionFix{
		TripIdentifier: tripIdentifier,
		Latitude:       u.Latitude,
		Longitude:      u.Longitude,
		RecordedAt:     receivedAt,
		IngestedAt:     receivedAt,
	}, nil
}

// ValidateCoordinates checks a latitude/longitude pair against the valid
// WGS84 ranges.
func ValidateCoordinates(latitude float64, longitude float64) error {
	return validateCoordinates(latitude, longitude)
}

func validateCoordinates(latitude float64, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return errInvalidLatitude
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return errInvalidLongitude
	}

	return nil
}
