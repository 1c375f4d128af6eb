// Package clock provides an injectable time source and a minimum-interval
// limiter for the simulation tick.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts wall time so loops can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now.
func (Real) Now() time.Time { return time.Now() }

// Sleep waits for d on a timer.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Manual is a virtual clock. Sleep advances it instantly and records the
// requested duration.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves virtual time forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Sleep advances virtual time by d without blocking.
func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	if d > 0 {
		m.now = m.now.Add(d)
	}
	return nil
}

// Sleeps returns a copy of every duration passed to Sleep.
func (m *Manual) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// Limiter enforces a minimum wall duration per tick.
type Limiter struct {
	Interval time.Duration
	Clock    Clock
}

// DefaultRateHz is the tick rate used when none is configured.
const DefaultRateHz = 30

// NewLimiter creates a limiter for the given rate. Non-positive rates fall
// back to DefaultRateHz. A nil clock means Real.
func NewLimiter(hz float64, c Clock) *Limiter {
	if hz <= 0 {
		hz = DefaultRateHz
	}
	if c == nil {
		c = Real{}
	}
	return &Limiter{
		Interval: time.Duration(float64(time.Second) / hz),
		Clock:    c,
	}
}

// Wait sleeps whatever remains of the interval since start. It returns the
// time slept, which is zero when the tick already overran.
func (l *Limiter) Wait(ctx context.Context, start time.Time) (time.Duration, error) {
	remaining := l.Interval - l.Clock.Now().Sub(start)
	if remaining <= 0 {
		return 0, nil
	}
	if err := l.Clock.Sleep(ctx, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}
