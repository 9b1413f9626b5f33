package particles

import (
	"time"
)

// Timer supplies per-frame timing in seconds.
type Timer interface {
	OnFrameBegin()
	TotalTime() float64
	DeltaTime() float64
}

const DefaultMaxFrameDelta = 250 * time.Millisecond

// FrameClock is a Timer over the wall clock. The first frame has a zero delta.
type FrameClock struct {
	// MaxDelta caps a single frame's delta; zero disables the cap.
	MaxDelta time.Duration

	now   func() time.Time
	last  time.Time
	total time.Duration
	dt    time.Duration
}

func NewFrameClock() *FrameClock {
	return newFrameClockWith(time.Now)
}

func newFrameClockWith(now func() time.Time) *FrameClock {
	return &FrameClock{
		MaxDelta: DefaultMaxFrameDelta,
		now:      now,
	}
}

func (c *FrameClock) OnFrameBegin() {
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		c.dt = 0
		return
	}

	dt := now.Sub(c.last)
	if dt < 0 {
		dt = 0
	}
	if c.MaxDelta > 0 && dt > c.MaxDelta {
		dt = c.MaxDelta
	}
	c.dt = dt
	c.total += dt
	c.last = now
}

// TotalTime is the sum of all (clamped) frame deltas so far.
func (c *FrameClock) TotalTime() float64 {
	return c.total.Seconds()
}

func (c *FrameClock) DeltaTime() float64 {
	return c.dt.Seconds()
}
