package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/app"
	"github.com/gekko3d/particles/particlert/rt/input"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Config file (.toml, .yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging and per-second frame stats")
	maxParticles := flag.Int("max-particles", 0, "Override the particle pool capacity")
	shaderDir := flag.String("shader-dir", "", "Load particle shaders from this directory instead of the embedded ones")
	flag.Parse()

	logger := particles.NewDefaultLogger("particles", *debug)

	cfg := particles.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = particles.LoadConfig(*configPath); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.Debug = true
	}
	if *maxParticles > 0 {
		cfg.Simulation.MaxParticles = *maxParticles
	}
	if *shaderDir != "" {
		cfg.Simulation.ShaderDir = *shaderDir
	}

	if err := run(cfg, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg particles.Config, logger particles.Logger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application, err := app.NewApp(window, cfg, logger)
	if err != nil {
		return err
	}
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		k, ok := input.KeyFromGLFW(key)
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			application.Keyboard.NotifyKeyDown(k)
		case glfw.Release:
			application.Keyboard.NotifyKeyUp(k)
		}
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.Mouse.OnCursorPos(xpos, ypos)
	})

	captured := false
	for !window.ShouldClose() {
		glfw.PollEvents()

		if c := application.Mouse.Captured(); c != captured {
			captured = c
			if captured {
				window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled) // Disabled gives unbounded relative movement
			} else {
				window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		}

		application.Frame()
		if application.ShouldQuit() {
			window.SetShouldClose(true)
		}
	}
	return nil
}
