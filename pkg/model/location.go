package model

import "math"

const earthRadiusKm = 6371

// Location is a GeoJSON point. Coordinates are longitude then latitude,
// matching the order MongoDB expects for geospatial indexes.
type Location struct {
	Type        string    `json:"-" bson:"type" groups:"basic"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" groups:"basic"`
}

func NewLocation(latitude float64, longitude float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (l Location) Longitude() float64 {
	return l.Coordinates[0]
}

func (l Location) Latitude() float64 {
	return l.Coordinates[1]
}

// Distance returns the great-circle distance to other in kilometres using the
// haversine formula. NaN coordinates propagate NaN.
func (l Location) Distance(other Location) float64 {
	lat1 := degreesToRadians(l.Latitude())
	lat2 := degreesToRadians(other.Latitude())
	deltaLat := degreesToRadians(other.Latitude() - l.Latitude())
	deltaLng := degreesToRadians(other.Longitude() - l.Longitude())

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// Bearing returns the initial bearing from this location to other, in radians.
func (l Location) Bearing(other Location) float64 {
	lat1 := degreesToRadians(l.Latitude())
	lat2 := degreesToRadians(other.Latitude())
	deltaLng := degreesToRadians(other.Longitude() - l.Longitude())

	return math.Atan2(
		math.Sin(deltaLng)*math.Cos(lat2),
		math.Cos(lat1)*math.Sin(lat2)-math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLng),
	)
}

// CrossTrackDistance returns the perpendicular distance in kilometres from
// this location to the great-circle path running from pathStart to pathEnd.
// It measures deviation from the straight line only, not progress along it.
func (l Location) CrossTrackDistance(pathStart Location, pathEnd Location) float64 {
	angularDistance13 := pathStart.Distance(l) / earthRadiusKm
	bearing13 := pathStart.Bearing(l)
	bearing12 := pathStart.Bearing(pathEnd)

	crossTrack := math.Asin(math.Sin(angularDistance13) * math.Sin(bearing13-bearing12))

	return math.Abs(earthRadiusKm * crossTrack)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
