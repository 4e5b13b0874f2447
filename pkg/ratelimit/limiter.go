// Package ratelimit shapes outbound Fortnox traffic. The provider enforces
// two sliding-window quotas on one API credential set, so the whole process
// shares a single Limiter regardless of how many tenants sync at once.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultBurst           = 20
	DefaultBurstWindow     = 5 * time.Second
	DefaultSustained       = 200
	DefaultSustainedWindow = 60 * time.Second
	DefaultMinSpacing      = 200 * time.Millisecond
)

// NoSpacing disables the per-admission spacing entirely; a zero MinSpacing
// means the default.
const NoSpacing time.Duration = -1

// Options configures a Limiter. Zero values fall back to the defaults above.
type Options struct {
	// Burst is the admission cap within any trailing BurstWindow.
	Burst       int
	BurstWindow time.Duration
	// Sustained is the admission cap within any trailing SustainedWindow.
	Sustained       int
	SustainedWindow time.Duration
	// MinSpacing smooths bursts even while quota remains. Set NoSpacing to
	// turn it off.
	MinSpacing time.Duration

	// Now and Sleep exist so tests can drive a simulated clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Limiter admits callers first-come-first-served without ever exceeding
// either window. Admission slots are reserved under the mutex, so the
// guarantees hold across concurrent goroutines.
type Limiter struct {
	opts Options

	mu sync.Mutex
	// admissions holds reserved slot times, oldest first, trimmed to the
	// larger of the two window caps.
	admissions []time.Time
	next       time.Time
}

// New creates a limiter. One instance should be shared process-wide.
func New(opts Options) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.BurstWindow <= 0 {
		opts.BurstWindow = DefaultBurstWindow
	}
	if opts.Sustained <= 0 {
		opts.Sustained = DefaultSustained
	}
	if opts.SustainedWindow <= 0 {
		opts.SustainedWindow = DefaultSustainedWindow
	}
	if opts.MinSpacing == 0 {
		opts.MinSpacing = DefaultMinSpacing
	} else if opts.MinSpacing < 0 {
		opts.MinSpacing = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Limiter{opts: opts}
}

// Wait blocks until the caller may start a request, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	now := l.opts.Now()
	at := l.reserve(now)
	l.mu.Unlock()

	if wait := at.Sub(now); wait > 0 {
		return l.opts.Sleep(ctx, wait)
	}
	return nil
}

// reserve picks the earliest admission time satisfying the spacing and both
// windows, records it and returns it. Callers must hold l.mu.
func (l *Limiter) reserve(now time.Time) time.Time {
	at := now
	if at.Before(l.next) {
		at = l.next
	}
	if c := l.windowConstraint(l.opts.Burst, l.opts.BurstWindow); c.After(at) {
		at = c
	}
	if c := l.windowConstraint(l.opts.Sustained, l.opts.SustainedWindow); c.After(at) {
		at = c
	}

	l.admissions = append(l.admissions, at)
	if keep := max(l.opts.Burst, l.opts.Sustained); len(l.admissions) > keep {
		l.admissions = l.admissions[len(l.admissions)-keep:]
	}
	l.next = at.Add(l.opts.MinSpacing)
	return at
}

// windowConstraint returns the earliest time a new admission keeps the count
// within limit per window: one window after the limit-th most recent slot.
func (l *Limiter) windowConstraint(limit int, window time.Duration) time.Time {
	if len(l.admissions) < limit {
		return time.Time{}
	}
	return l.admissions[len(l.admissions)-limit].Add(window)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
