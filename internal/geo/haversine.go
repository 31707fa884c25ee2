// Package geo provides great-circle distance and geofence checks.
package geo

import (
	"math"

	"github.com/civicworks/presence/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in kilometers
// between two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinOffice reports whether a ping falls inside the office geofence.
func WithinOffice(ping domain.LocationPing, office domain.Office) bool {
	return Distance(ping.Latitude, ping.Longitude, office.Latitude, office.Longitude) < office.RadiusKm
}
