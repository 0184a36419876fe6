// Package timing provides the per-frame clock consumed by the tracer and the
// viewer camera.
package timing

import "time"

// Timing is a snapshot of one frame tick.
type Timing struct {
	Now   time.Time     // Wall-clock time of the tick
	Dt    time.Duration // Elapsed time since the previous tick
	Frame uint64        // Number of ticks taken so far, starting at 1
}

// Seconds returns Dt in seconds.
func (t Timing) Seconds() float64 {
	return t.Dt.Seconds()
}

// Clock produces Timing values. The zero value is not usable; use NewClock.
type Clock struct {
	now   func() time.Time
	last  time.Time
	frame uint64
	maxDt time.Duration
}

// NewClock creates a clock backed by time.Now.
// Deltas are clamped to maxDt when it is positive, so a stall (window drag,
// debugger) doesn't produce a huge step.
func NewClock(maxDt time.Duration) *Clock {
	return newClock(time.Now, maxDt)
}

func newClock(now func() time.Time, maxDt time.Duration) *Clock {
	return &Clock{now: now, last: now(), maxDt: maxDt}
}

// Tick advances the clock and returns the new frame timing.
func (c *Clock) Tick() Timing {
	now := c.now()
	dt := now.Sub(c.last)
	c.last = now
	if c.maxDt > 0 && dt > c.maxDt {
		dt = c.maxDt
	}
	c.frame++
	return Timing{Now: now, Dt: dt, Frame: c.frame}
}

// Fixed returns a Timing with the given delta, for offline rendering and tests.
func Fixed(dt time.Duration) Timing {
	return Timing{Now: time.Now(), Dt: dt}
}
