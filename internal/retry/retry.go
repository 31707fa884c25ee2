// Package retry provides a small fixed-delay retry policy shared by
// the capture paths, replacing ad-hoc nested loops with manual sleeps.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how often to re-run a single-attempt operation.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn until it succeeds, the attempts are exhausted, or the
// context ends. Between attempts it waits Delay. The last error is
// returned unwrapped so callers can classify it.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}

	return lastErr
}

// Permanent marks err as not worth retrying. Do stops immediately and
// returns the underlying error.
func Permanent(err error) error {
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}
