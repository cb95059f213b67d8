// Package backoff implements bounded exponential retry used by event append
// and by stream clients reconnecting after a disconnect.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
	Jitter       bool
}

// Default is the policy used when none is configured.
var Default = Policy{
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	MaxAttempts:  5,
	Jitter:       true,
}

// Attempts returns the attempt budget, never less than one. A policy built
// by hand with a zero or negative MaxAttempts still runs the operation.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the delay before the given attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.Jitter && d > 0 {
		// Up to 25% jitter to avoid thundering retries.
		d += time.Duration(rand.Int63n(int64(d) / 4))
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempt budget is exhausted, or ctx is cancelled. retryable classifies
// which errors are worth another attempt; a nil retryable retries all.
func Retry(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.Attempts(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay(attempt - 1)):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}
