package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Run("one degree of longitude at the equator", func(t *testing.T) {
		a := NewLocation(0, 0)
		b := NewLocation(0, 1)

		assert.InDelta(t, 111.19, a.Distance(b), 0.6)
	})

	t.Run("zero distance to itself", func(t *testing.T) {
		a := NewLocation(23.8103, 90.4125)

		assert.Equal(t, float64(0), a.Distance(a))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := NewLocation(23.8103, 90.4125)
		b := NewLocation(23.8203, 90.4125)

		assert.InDelta(t, a.Distance(b), b.Distance(a), 0.000001)
	})

	t.Run("short hop is about a kilometre", func(t *testing.T) {
		// 0.01 degrees of latitude is roughly 1.11 km anywhere on earth
		a := NewLocation(23.8103, 90.4125)
		b := NewLocation(23.8203, 90.4125)

		assert.InDelta(t, 1.11, a.Distance(b), 0.02)
	})
}

func TestCrossTrackDistance(t *testing.T) {
	origin := NewLocation(23.8103, 90.4125)
	destination := NewLocation(23.8203, 90.4125)

	t.Run("point on the path", func(t *testing.T) {
		onPath := NewLocation(23.8153, 90.4125)

		assert.InDelta(t, 0, onPath.CrossTrackDistance(origin, destination), 0.001)
	})

	t.Run("point well off the path", func(t *testing.T) {
		offPath := NewLocation(23.8153, 90.4175)

		deviation := offPath.CrossTrackDistance(origin, destination)
		assert.Greater(t, deviation, 0.5)
	})

	t.Run("point barely off the path", func(t *testing.T) {
		nearPath := NewLocation(23.8153, 90.4126)

		deviation := nearPath.CrossTrackDistance(origin, destination)
		assert.Less(t, deviation, 0.5)
	})

	t.Run("always non negative", func(t *testing.T) {
		west := NewLocation(23.8153, 90.4000)
		east := NewLocation(23.8153, 90.4300)

		assert.GreaterOrEqual(t, west.CrossTrackDistance(origin, destination), float64(0))
		assert.GreaterOrEqual(t, east.CrossTrackDistance(origin, destination), float64(0))
	})
}

func TestLocationCoordinateOrder(t *testing.T) {
	location := NewLocation(23.8103, 90.4125)

	assert.Equal(t, "Point", location.Type)
	assert.Equal(t, 90.4125, location.Longitude())
	assert.Equal(t, 23.8103, location.Latitude())
	assert.Equal(t, []float64{90.4125, 23.8103}, location.Coordinates)
}
