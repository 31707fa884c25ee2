package location

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/civicworks/presence/internal/domain"
)

// SimPositioner is a development Positioner that fabricates fixes
// drifting around a fixed center. Each fix moves a few meters from the
// previous one so the series looks like a handheld device rather than
// a replayed coordinate.
type SimPositioner struct {
	mu    sync.Mutex
	rng   *rand.Rand
	lat   float64
	lng   float64
	stepM float64
}

// NewSimPositioner seeds the walk at the office center. stepM bounds
// the per-fix drift in meters.
func NewSimPositioner(office domain.Office, stepM float64) *SimPositioner {
	if stepM <= 0 {
		stepM = 5
	}
	return &SimPositioner{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		lat:   office.Latitude,
		lng:   office.Longitude,
		stepM: stepM,
	}
}

// degreesPerMeter approximates one meter of latitude. Longitude drift
// uses the same factor, which is close enough for a few-meter walk.
const degreesPerMeter = 1.0 / 111320.0

func (s *SimPositioner) CurrentFix(ctx context.Context) (domain.LocationPing, error) {
	if err := ctx.Err(); err != nil {
		return domain.LocationPing{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lat += (s.rng.Float64()*2 - 1) * s.stepM * degreesPerMeter
	s.lng += (s.rng.Float64()*2 - 1) * s.stepM * degreesPerMeter

	accuracy := 8 + s.rng.Float64()*10
	speed := s.rng.Float64() * 1.2
	altitude := 216 + s.rng.Float64()*4

	ping := domain.LocationPing{
		Latitude:  s.lat,
		Longitude: s.lng,
		Timestamp: time.Now(),
		AccuracyM: &accuracy,
		SpeedMS:   &speed,
		AltitudeM: &altitude,
	}
	return ping, nil
}
