package speech

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrGateCancelled is returned by Gate.Do when the context ends before the
// call could start.
var ErrGateCancelled = errors.New("speech gate: cancelled before call")

// Gate serializes calls to a rate-sensitive service and keeps at least
// interval between the end of one call and the start of the next.
type Gate struct {
	interval time.Duration
	slot     chan struct{}

	mu       sync.Mutex
	lastCall time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithGateSleeper overrides how the gate waits (useful for tests).
func WithGateSleeper(sleep func(context.Context, time.Duration) error) GateOption {
	return func(g *Gate) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// NewGate returns a gate enforcing interval between calls.
func NewGate(interval time.Duration, opts ...GateOption) *Gate {
	g := &Gate{
		interval: interval,
		slot:     make(chan struct{}, 1),
		now:      time.Now,
		sleep:    sleepWithContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Interval reports the configured cooldown.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Do runs fn once the previous call has finished and the cooldown elapsed.
// The call's end time is recorded whether fn succeeds or fails.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return errors.Join(ErrGateCancelled, ctx.Err())
	}
	defer func() { <-g.slot }()

	if err := g.waitForWindow(ctx); err != nil {
		return errors.Join(ErrGateCancelled, err)
	}
	err := fn()
	g.markCall()
	return err
}

func (g *Gate) waitForWindow(ctx context.Context) error {
	g.mu.Lock()
	lastCall := g.lastCall
	g.mu.Unlock()
	if lastCall.IsZero() || g.interval <= 0 {
		return ctx.Err()
	}
	elapsed := g.now().Sub(lastCall)
	if elapsed >= g.interval {
		return ctx.Err()
	}
	return g.sleep(ctx, g.interval-elapsed)
}

func (g *Gate) markCall() {
	g.mu.Lock()
	g.lastCall = g.now()
	g.mu.Unlock()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
