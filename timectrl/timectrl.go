// Package timectrl drives simulation frames, either paced by the wall
// clock or as fast as the frame function returns.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock gives read access to simulation time in seconds.
type SimClock interface {
	Now() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime waits for a ticker and steps by the measured wall-clock
	// interval, clamped to MaxDt.
	RealTime Mode = iota
	// Accelerated steps by Tick back to back.
	Accelerated
)

// FrameFunc advances the simulation by dt to time t.
type FrameFunc func(dt, t float64) error

// TimeController drives simulation frames and notifies registered
// listeners after each one.
type TimeController struct {
	mu    sync.RWMutex
	Tick  time.Duration
	MaxDt float64
	Mode  Mode

	current float64

	listeners []func(float64)

	// now is replaced in tests.
	now func() time.Time
}

// NewTimeController constructs a controller starting at simulation time
// start (seconds).
func NewTimeController(start float64, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		Tick:    tick,
		MaxDt:   tick.Seconds(),
		Mode:    mode,
		current: start,
		now:     time.Now,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// SetTime jumps the clock, for example after restoring a snapshot.
func (tc *TimeController) SetTime(t float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.current = t
}

// AddListener registers a callback invoked after every frame.
func (tc *TimeController) AddListener(fn func(float64)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Run calls fn for frames frames, or until ctx is done when frames is not
// positive. It stops at the first error from fn.
func (tc *TimeController) Run(ctx context.Context, frames int, fn FrameFunc) error {
	var ticks <-chan time.Time
	if tc.Mode == RealTime {
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()
		ticks = ticker.C
	}
	last := tc.now()

	for i := 0; frames <= 0 || i < frames; i++ {
		dt := tc.Tick.Seconds()
		if ticks != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
			now := tc.now()
			dt = now.Sub(last).Seconds()
			last = now
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if tc.MaxDt > 0 && dt > tc.MaxDt {
			dt = tc.MaxDt
		}

		tc.mu.Lock()
		tc.current += dt
		t := tc.current
		listeners := append([]func(float64){}, tc.listeners...)
		tc.mu.Unlock()

		if err := fn(dt, t); err != nil {
			return err
		}
		for _, l := range listeners {
			l(t)
		}
	}
	return nil
}
