package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elonfeng/commutescore/pkg/provider"
)

func TestMidpoint(t *testing.T) {
	tests := []struct {
		name    string
		a, b    provider.Coordinates
		wantLat float64
		wantLng float64
	}{
		{"same point", provider.Coordinates{Lat: 40.7128, Lng: -74.006}, provider.Coordinates{Lat: 40.7128, Lng: -74.006}, 40.7128, -74.006},
		{"along equator", provider.Coordinates{Lat: 0, Lng: 0}, provider.Coordinates{Lat: 0, Lng: 90}, 0, 45},
		{"along meridian", provider.Coordinates{Lat: 10, Lng: 20}, provider.Coordinates{Lat: 30, Lng: 20}, 20, 20},
		{"antimeridian", provider.Coordinates{Lat: 0, Lng: 170}, provider.Coordinates{Lat: 0, Lng: -170}, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mid := Midpoint(tt.a, tt.b)
			assert.InDelta(t, tt.wantLat, mid.Lat, 1e-9)
			assert.InDelta(t, tt.wantLng, math.Abs(mid.Lng)*sign(tt.wantLng), 1e-9)
		})
	}
}

func TestMidpointGreatCircle(t *testing.T) {
	// NYC to London: the great-circle midpoint lies well north of the
	// average latitude.
	mid := Midpoint(provider.Coordinates{Lat: 40.7128, Lng: -74.006}, provider.Coordinates{Lat: 51.5074, Lng: -0.1278})
	assert.Greater(t, mid.Lat, (40.7128+51.5074)/2)
	assert.InDelta(t, 52.4, mid.Lat, 0.5)
	assert.InDelta(t, -41.3, mid.Lng, 0.5)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
