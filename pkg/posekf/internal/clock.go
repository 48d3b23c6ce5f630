// Package internal provides internal utilities for the posekf package.
package internal

import "time"

// Clock supplies frame timestamps. Tests substitute a ManualClock so frame
// rate statistics are deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, which carries a monotonic reading.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when told to. It is not safe for concurrent use.
type ManualClock struct {
	current time.Time
}

// NewManualClock returns a ManualClock starting at t, or at a fixed epoch
// when t is zero.
func NewManualClock(t time.Time) *ManualClock {
	if t.IsZero() {
		t = time.Unix(1700000000, 0)
	}
	return &ManualClock{current: t}
}

// Now returns the clock's current time.
func (m *ManualClock) Now() time.Time {
	return m.current
}

// Advance moves the clock forward by d. It panics on negative durations.
func (m *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("ManualClock.Advance: negative duration")
	}
	m.current = m.current.Add(d)
}

// AdvanceFrames moves the clock forward by n frame intervals at fps frames
// per second.
func (m *ManualClock) AdvanceFrames(n int, fps float64) {
	if fps <= 0 {
		panic("ManualClock.AdvanceFrames: fps must be positive")
	}
	m.Advance(time.Duration(float64(n) * float64(time.Second) / fps))
}
