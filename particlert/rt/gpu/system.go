// Package gpu is the WebGPU backend behind the gfx interfaces.
package gpu

import (
	"fmt"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// NewSystem brings up device, resource manager and renderer for window.
func NewSystem(window *glfw.Window, opts Options, logger particles.Logger) (*gfx.System, error) {
	device, err := NewDevice(window, opts, logger)
	if err != nil {
		return nil, err
	}

	rm := NewResourceManager(device.device, device.Format(), logger)
	renderer, err := NewRenderer(device, rm, logger)
	if err != nil {
		rm.Release()
		device.Release()
		return nil, fmt.Errorf("gpu: renderer: %w", err)
	}

	return &gfx.System{
		API:             gfx.APIWebGPU,
		Device:          device,
		ResourceManager: rm,
		Renderer:        renderer,
	}, nil
}
