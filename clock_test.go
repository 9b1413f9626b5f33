package particles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func TestFrameClock(t *testing.T) {
	f := &fakeNow{t: time.Unix(1000, 0)}
	c := newFrameClockWith(f.now)

	c.OnFrameBegin()
	assert.Zero(t, c.DeltaTime(), "first frame")

	f.t = f.t.Add(16 * time.Millisecond)
	c.OnFrameBegin()
	assert.InDelta(t, 0.016, c.DeltaTime(), 1e-9)

	f.t = f.t.Add(5 * time.Second)
	c.OnFrameBegin()
	assert.InDelta(t, 0.25, c.DeltaTime(), 1e-9, "clamped to MaxDelta")
	assert.InDelta(t, 0.266, c.TotalTime(), 1e-9)

	f.t = f.t.Add(-time.Second)
	c.OnFrameBegin()
	assert.Zero(t, c.DeltaTime(), "clock went backwards")

	c.MaxDelta = 0
	f.t = f.t.Add(2 * time.Second)
	c.OnFrameBegin()
	assert.InDelta(t, 2.0, c.DeltaTime(), 1e-9)
}

func TestNewFrameClockDefaults(t *testing.T) {
	var timer Timer = NewFrameClock()
	c := timer.(*FrameClock)
	assert.Equal(t, DefaultMaxFrameDelta, c.MaxDelta)
}
