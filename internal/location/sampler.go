// Package location collects the time-spaced GPS fix series a
// verification attempt is built on.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/civicworks/presence/internal/domain"
)

// Capability errors a Positioner implementation reports. The sampler
// translates them into the domain taxonomy before they reach callers.
var (
	ErrPermissionDenied = errors.New("positioning permission denied")
	ErrNoFix            = errors.New("no position fix available")
)

// Positioner is the positioning capability. CurrentFix must return a
// fresh fix: implementations are required to disable any caching of the
// underlying position, since a stale cached fix defeats the anti-spoof
// purpose of the series.
type Positioner interface {
	CurrentFix(ctx context.Context) (domain.LocationPing, error)
}

// ProgressFunc reports sampling progress after each successful fix.
type ProgressFunc func(collected, total int)

// Config controls one sampling run.
type Config struct {
	Count      int           // fixes per attempt
	Interval   time.Duration // spacing between fixes
	FixTimeout time.Duration // bounded wait per fix
}

// DefaultConfig returns the check-in sampling parameters.
func DefaultConfig() Config {
	return Config{
		Count:      4,
		Interval:   1500 * time.Millisecond,
		FixTimeout: 10 * time.Second,
	}
}

// Sampler drives a Positioner to collect an ordered ping series.
type Sampler struct {
	positioner Positioner
	cfg        Config
	logger     *slog.Logger
	onProgress ProgressFunc
}

func NewSampler(positioner Positioner, cfg Config, logger *slog.Logger) *Sampler {
	if cfg.Count <= 0 {
		cfg = DefaultConfig()
	}
	return &Sampler{
		positioner: positioner,
		cfg:        cfg,
		logger:     logger,
	}
}

// WithProgress registers a progress callback, invoked after each
// successful fix so a caller can render a live indicator.
func (s *Sampler) WithProgress(fn ProgressFunc) *Sampler {
	s.onProgress = fn
	return s
}

// Collect obtains cfg.Count fresh fixes, strictly sequential and in
// capture order, sleeping cfg.Interval between fixes (not after the
// final one). Capability failures come back classified: permission
// refusals as ErrLocationPermission, anything that cannot produce a
// fix within cfg.FixTimeout as ErrLocationTimeout.
func (s *Sampler) Collect(ctx context.Context) ([]domain.LocationPing, error) {
	pings := make([]domain.LocationPing, 0, s.cfg.Count)

	for i := 0; i < s.cfg.Count; i++ {
		ping, err := s.obtainFix(ctx)
		if err != nil {
			return nil, err
		}

		pings = append(pings, ping)
		s.logger.Debug("location fix collected",
			slog.Int("index", i+1),
			slog.Int("total", s.cfg.Count),
		)

		if s.onProgress != nil {
			s.onProgress(len(pings), s.cfg.Count)
		}

		if i < s.cfg.Count-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.Interval):
			}
		}
	}

	return pings, nil
}

func (s *Sampler) obtainFix(ctx context.Context) (domain.LocationPing, error) {
	fixCtx, cancel := context.WithTimeout(ctx, s.cfg.FixTimeout)
	defer cancel()

	ping, err := s.positioner.CurrentFix(fixCtx)
	if err != nil {
		switch {
		case errors.Is(err, ErrPermissionDenied):
			return domain.LocationPing{}, domain.ErrLocationPermission.WithError(err)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrNoFix):
			return domain.LocationPing{}, domain.ErrLocationTimeout.WithError(err)
		case errors.Is(err, context.Canceled):
			return domain.LocationPing{}, fmt.Errorf("sampling cancelled: %w", err)
		default:
			return domain.LocationPing{}, domain.ErrLocationTimeout.WithError(err)
		}
	}

	if ping.Timestamp.IsZero() {
		ping.Timestamp = time.Now().UTC()
	}

	return ping, nil
}
