package app

import (
	"bytes"
	"testing"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/gfx/gfxtest"
	"github.com/gekko3d/particles/particlert/rt/input"
	"github.com/gekko3d/particles/particlert/rt/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, logger particles.Logger) (*App, *[]string) {
	t.Helper()
	cfg := particles.DefaultConfig()
	cfg.Simulation.MaxParticles = 1000

	a, err := NewApp(nil, cfg, logger)
	require.NoError(t, err)

	system, log := gfxtest.NewSystem()
	a.Graphics = system
	require.NoError(t, a.initGraphics())
	return a, log
}

func TestStepOrder(t *testing.T) {
	a, log := newTestApp(t, nil)

	a.step(0.01)
	assert.Equal(t, []string{"clear", "camera", "draw", "swap"}, *log)

	a.step(0.01)
	assert.Equal(t, []string{"clear", "camera", "draw", "swap", "clear", "camera", "draw", "swap"}, *log)
}

func TestStepDrawsLiveParticles(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.step(0.01)

	r := a.Graphics.Renderer.(*gfxtest.Renderer)
	require.Len(t, r.Draws, 1)
	require.Len(t, r.Draws[0], 1)

	active := a.Simulation.ActiveParticleCount()
	assert.Equal(t, 300, active, "30000 particles/s for 10ms")
	call := r.Draws[0][0]
	assert.Equal(t, gfx.Triangles, call.Mode)
	assert.Equal(t, active*sim.IndicesPerParticle, call.NumIndices)

	assert.Equal(t, a.Clear, r.Clears[0])
	assert.Equal(t, a.Viewport, r.Viewports[0])
	assert.Equal(t, active, a.Profiler.Counts["particles"])
}

func TestStepHandlesKeys(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a.Keyboard.NotifyKeyDown(input.KeyTab)
	a.step(0.01)
	assert.True(t, a.Mouse.Captured())

	// Still held: no second toggle.
	a.step(0.01)
	assert.True(t, a.Mouse.Captured())

	a.Keyboard.NotifyKeyUp(input.KeyTab)
	a.step(0.01)
	a.Keyboard.NotifyKeyDown(input.KeyTab)
	a.step(0.01)
	assert.False(t, a.Mouse.Captured())

	assert.False(t, a.ShouldQuit())
	a.Keyboard.NotifyKeyDown(input.KeyEscape)
	a.step(0.01)
	assert.True(t, a.ShouldQuit())
}

func TestStepMovesCamera(t *testing.T) {
	a, _ := newTestApp(t, nil)
	start := a.Camera.Transform.Position()

	a.Keyboard.NotifyKeyDown(input.KeyW)
	a.step(0.5)

	assert.InDelta(t, start.Z()-4, a.Camera.Transform.Position().Z(), 1e-5)
}

func TestStepResetsMouseDeltas(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.Mouse.SetCaptured(true)
	a.Mouse.OnCursorPos(0, 0)
	a.Mouse.OnCursorPos(10, 0)

	a.step(0.1)
	assert.Zero(t, a.Mouse.DeltaX())
	assert.NotZero(t, a.Camera.Yaw)
}

func TestInitGraphicsReportsDiagnostic(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := particles.DefaultConfig()
	cfg.Simulation.MaxParticles = 10
	a, err := NewApp(nil, cfg, particles.NewLoggerTo("", false, &out, &errOut))
	require.NoError(t, err)

	system, _ := gfxtest.NewSystem()
	system.ResourceManager.(*gfxtest.ResourceManager).FailPrograms = "line 3: syntax error"
	a.Graphics = system

	err = a.initGraphics()
	assert.ErrorIs(t, err, gfx.ErrResourceCreation)
	assert.Contains(t, errOut.String(), "line 3: syntax error")
}

func TestReportLogsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	a, _ := newTestApp(t, particles.NewLoggerTo("", true, &out, &out))
	out.Reset()

	for i := 0; i < 3; i++ {
		a.step(0.25)
	}
	assert.NotContains(t, out.String(), "fps")

	a.step(0.25)
	assert.Contains(t, out.String(), "fps")
	assert.Contains(t, out.String(), "particles")
	assert.Zero(t, a.statsFrames)
}

func TestResizeAndRelease(t *testing.T) {
	a, _ := newTestApp(t, nil)
	device := a.Graphics.Device.(*gfxtest.Device)
	rm := a.Graphics.ResourceManager.(*gfxtest.ResourceManager)

	a.Resize(640, 480)
	assert.Equal(t, gfx.Viewport{Width: 640, Height: 480}, a.Viewport)
	assert.Equal(t, 640, device.Width)

	a.Release()
	assert.True(t, device.Released)
	assert.Empty(t, rm.Buffers)
	assert.Empty(t, rm.Programs)
	assert.Nil(t, a.Graphics)

	a.Release()
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	cfg := particles.DefaultConfig()
	cfg.Emitter.Hops = 0
	_, err := NewApp(nil, cfg, nil)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
