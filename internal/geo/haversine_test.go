package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicworks/presence/internal/domain"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
		toleranceKm            float64
	}{
		{
			name: "same point is zero",
			lat1: 28.6139, lng1: 77.2090,
			lat2: 28.6139, lng2: 77.2090,
			wantKm: 0, toleranceKm: 0.0001,
		},
		{
			name: "delhi to mumbai",
			lat1: 28.6139, lng1: 77.2090,
			lat2: 19.0760, lng2: 72.8777,
			wantKm: 1153, toleranceKm: 15,
		},
		{
			name: "short hop across a city block",
			lat1: 28.6139, lng1: 77.2090,
			lat2: 28.6149, lng2: 77.2090,
			wantKm: 0.111, toleranceKm: 0.005,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.wantKm, got, tt.toleranceKm)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	d1 := Distance(28.6139, 77.2090, 19.0760, 72.8777)
	d2 := Distance(19.0760, 72.8777, 28.6139, 77.2090)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestWithinOffice(t *testing.T) {
	office := domain.Office{Latitude: 28.6139, Longitude: 77.2090, RadiusKm: 0.5}

	t.Run("ping exactly at office is within any positive radius", func(t *testing.T) {
		ping := domain.LocationPing{Latitude: office.Latitude, Longitude: office.Longitude}
		for _, radius := range []float64{0.001, 0.5, 10} {
			office.RadiusKm = radius
			assert.True(t, WithinOffice(ping, office))
		}
	})

	t.Run("ping outside radius", func(t *testing.T) {
		office.RadiusKm = 0.5
		ping := domain.LocationPing{Latitude: 28.6239, Longitude: 77.2190}
		d := Distance(ping.Latitude, ping.Longitude, office.Latitude, office.Longitude)
		assert.Greater(t, d, office.RadiusKm)
		assert.False(t, WithinOffice(ping, office))
	})

	t.Run("boundary is exclusive", func(t *testing.T) {
		// A ping at exactly radius distance is not "within office".
		office.RadiusKm = 0
		ping := domain.LocationPing{Latitude: office.Latitude, Longitude: office.Longitude}
		assert.False(t, WithinOffice(ping, office))
	})
}
