// Package ratelimit spaces calls to an external service by a fixed minimum
// interval, measured from the start of one call to the start of the next.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter is a single gate shared by every caller of one external service.
// Waiters are served one at a time.
type Limiter struct {
	interval time.Duration
	clock    clockwork.Clock

	mu              sync.Mutex
	nextAvailableAt time.Time
}

// New creates a Limiter. A nil clock uses real time.
func New(interval time.Duration, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{interval: interval, clock: clock}
}

// Interval returns the minimum spacing between calls.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until the next call may start, then reserves the following
// slot. It returns how long the caller waited. If ctx ends first, no slot is
// consumed and ctx.Err() is returned.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := l.clock.Now()
	var waited time.Duration
	if delay := l.nextAvailableAt.Sub(now); delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-l.clock.After(delay):
		}
		waited = delay
		now = l.clock.Now()
	}

	l.nextAvailableAt = now.Add(l.interval)
	return waited, nil
}
