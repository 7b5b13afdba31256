// Package ratelimit provides the global request gate shared by all page fetches.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPerMinute is used when a non-positive rate is configured.
const DefaultPerMinute = 30

// Limiter spaces permits at least 60s/maxPerMinute apart regardless of how
// many goroutines wait on it.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New creates a Limiter that grants at most maxPerMinute permits per minute.
func New(maxPerMinute int) *Limiter {
	if maxPerMinute <= 0 {
		maxPerMinute = DefaultPerMinute
	}
	interval := time.Minute / time.Duration(maxPerMinute)
	return &Limiter{
		// A burst of one turns the token bucket into fixed spacing.
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Acquire blocks until a permit is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between two permits.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
