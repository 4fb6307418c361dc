// Package clock implements the time port with a wall clock and a
// manually advanced test clock.
package clock

import (
	"sync"
	"time"
)

// Real reads the system wall clock.
type Real struct{}

// Now reports the current wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a clock that only moves when told to, for deterministic
// tests of time-dependent behavior (subscription windows, resets).
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFake returns a fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now reports the frozen time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set jumps the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
