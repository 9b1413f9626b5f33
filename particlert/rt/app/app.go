// Package app drives one window: input, camera, particle simulation and the
// graphics backend, in a fixed per-frame order.
package app

import (
	"fmt"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/core"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/gpu"
	"github.com/gekko3d/particles/particlert/rt/input"
	"github.com/gekko3d/particles/particlert/rt/sim"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// statsInterval is how often profiler stats are logged, in seconds.
const statsInterval = 1.0

type App struct {
	Window     *glfw.Window
	Graphics   *gfx.System
	Simulation *sim.Simulation
	Camera     *core.Camera
	Keyboard   *input.Keyboard
	Mouse      *input.Mouse
	Clock      particles.Timer
	Profiler   *Profiler
	Logger     particles.Logger

	Clear    gfx.ClearOptions
	Viewport gfx.Viewport

	config    particles.Config
	drawCalls []gfx.DrawCall
	quit      bool

	statsTime   float64
	statsFrames int
}

func NewApp(window *glfw.Window, cfg particles.Config, logger particles.Logger) (*App, error) {
	logger = particles.OrNop(logger)
	if cfg.Debug {
		logger.SetDebug(true)
	}

	simCfg, err := cfg.SimulationConfig()
	if err != nil {
		return nil, err
	}
	simulation, err := sim.New(simCfg)
	if err != nil {
		return nil, err
	}

	clearOpts, err := cfg.ClearOptions()
	if err != nil {
		return nil, err
	}

	camera := core.NewCamera()
	camera.SetProjection(mgl32.DegToRad(cfg.Camera.FovyDegrees), cfg.Camera.Near, cfg.Camera.Far)
	camera.Transform.SetPosition(mgl32.Vec3(cfg.Camera.Position))
	camera.MoveSpeed = cfg.Camera.MoveSpeed
	camera.RotationRate = cfg.Camera.RotationRate

	return &App{
		Window:     window,
		Simulation: simulation,
		Camera:     camera,
		Keyboard:   &input.Keyboard{},
		Mouse:      &input.Mouse{},
		Clock:      particles.NewFrameClock(),
		Profiler:   NewProfiler(),
		Logger:     logger,
		Clear:      clearOpts,
		Viewport:   gfx.Viewport{Width: cfg.Window.Width, Height: cfg.Window.Height},
		config:     cfg,
	}, nil
}

// Init brings up the configured graphics backend and the particle
// resources on it.
func (a *App) Init() error {
	api, err := gfx.ParseAPI(a.config.Simulation.API)
	if err != nil {
		return err
	}

	switch api {
	case gfx.APIWebGPU:
		a.Graphics, err = gpu.NewSystem(a.Window, gpu.Options{VSync: a.config.Window.VSync}, a.Logger)
	default:
		err = fmt.Errorf("%w: %s", gfx.ErrUnsupportedAPI, api)
	}
	if err != nil {
		return err
	}

	if a.Window != nil {
		w, h := a.Window.GetFramebufferSize()
		a.Viewport = gfx.Viewport{Width: w, Height: h}
	}
	return a.initGraphics()
}

func (a *App) initGraphics() error {
	rm := a.Graphics.ResourceManager
	if err := a.Simulation.InitGraphicsResources(rm); err != nil {
		a.Logger.Errorf("particle resources: %v", err)
		if diag := rm.LastError(); diag != "" {
			a.Logger.Errorf("%s", diag)
		}
		return err
	}
	a.Logger.Infof("%s backend ready, %d particles max", a.Graphics.API, a.Simulation.Capacity())
	return nil
}

// Frame ticks the clock and runs one frame.
func (a *App) Frame() {
	a.Clock.OnFrameBegin()
	a.step(a.Clock.DeltaTime())
}

func (a *App) step(dt float64) {
	a.handleKeys()
	a.Camera.ProcessInput(a.Keyboard, a.Mouse, float32(dt))

	a.Profiler.BeginScope("update")
	a.Simulation.Update(dt)
	a.Profiler.EndScope("update")

	a.Profiler.BeginScope("pack")
	calls, err := a.Simulation.GetDrawCalls(a.Graphics.ResourceManager, a.drawCalls[:0])
	if err != nil {
		a.Logger.Errorf("particle draw calls: %v", err)
	}
	a.drawCalls = calls
	a.Profiler.EndScope("pack")

	a.Profiler.BeginScope("draw")
	r := a.Graphics.Renderer
	r.Clear(a.Clear)
	r.SetupCamera(a.Camera, a.Viewport)
	r.Draw(a.drawCalls)
	a.Graphics.Device.SwapBuffers()
	a.Profiler.EndScope("draw")

	a.Keyboard.SwapBuffers()
	a.Mouse.OnFrameBegin()

	a.Profiler.SetCount("particles", a.Simulation.ActiveParticleCount())
	a.report(dt)
}

// handleKeys toggles mouse capture on Tab and requests quit on Escape.
func (a *App) handleKeys() {
	if a.Keyboard.IsKeyDownEdge(input.KeyTab) {
		a.Mouse.SetCaptured(!a.Mouse.Captured())
	}
	if a.Keyboard.IsKeyDownEdge(input.KeyEscape) {
		a.quit = true
	}
}

func (a *App) ShouldQuit() bool {
	return a.quit
}

func (a *App) report(dt float64) {
	a.statsTime += dt
	a.statsFrames++
	if a.statsTime < statsInterval {
		return
	}
	if a.Logger.DebugEnabled() {
		a.Logger.Debugf("%.1f fps\n%s", float64(a.statsFrames)/a.statsTime, a.Profiler.GetStatsString(a.statsFrames))
	}
	a.Profiler.Reset()
	a.statsTime = 0
	a.statsFrames = 0
}

func (a *App) Resize(w, h int) {
	a.Viewport = gfx.Viewport{Width: w, Height: h}
	if a.Graphics != nil {
		a.Graphics.Device.Resize(w, h)
	}
}

func (a *App) Release() {
	if a.Graphics == nil {
		return
	}
	a.Simulation.ReleaseGraphicsResources(a.Graphics.ResourceManager)
	a.Graphics.Release()
	a.Graphics = nil
}
