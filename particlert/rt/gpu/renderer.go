package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// cameraUBOSize is world, view, proj and view-proj, four column-major mat4s.
	cameraUBOSize = 4 * 64

	CameraBinding uint32 = 0
)

// clipDepthRemap maps OpenGL clip depth [-w, w] onto the [0, w] range WebGPU
// expects.
var clipDepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func projection(camera gfx.Camera, viewport gfx.Viewport) mgl32.Mat4 {
	proj := mgl32.Perspective(camera.Fovy(), viewport.Aspect(), camera.Near(), camera.Far())
	return clipDepthRemap.Mul4(proj)
}

func packCameraUBO(dst []byte, world, view, proj, viewProj mgl32.Mat4) {
	writeMat := func(offset int, mat mgl32.Mat4) {
		for i, v := range mat {
			binary.LittleEndian.PutUint32(dst[offset+i*4:], math.Float32bits(v))
		}
	}
	writeMat(0, world)
	writeMat(64, view)
	writeMat(128, proj)
	writeMat(192, viewProj)
}

// Renderer implements gfx.Renderer. Each Draw is one render pass; the first
// pass of a frame applies the pending clear.
type Renderer struct {
	device *Device
	rm     *ResourceManager
	logger particles.Logger

	camera   gfx.BufferHandle
	viewport gfx.Viewport

	warned map[gfx.Mode]bool
}

func NewRenderer(device *Device, rm *ResourceManager, logger particles.Logger) (*Renderer, error) {
	camera, err := rm.CreateStreamingUniformBuffer(cameraUBOSize, nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: camera uniform buffer: %w", err)
	}
	w, h := device.Size()
	return &Renderer{
		device:   device,
		rm:       rm,
		logger:   particles.OrNop(logger),
		camera:   camera,
		viewport: gfx.Viewport{Width: w, Height: h},
		warned:   make(map[gfx.Mode]bool),
	}, nil
}

// Clear schedules a color clear for the next pass. The surface has no depth
// or stencil attachment, so only the color part applies.
func (r *Renderer) Clear(options gfx.ClearOptions) {
	if !options.ClearColor {
		r.device.setClear(nil)
		return
	}
	r.device.setClear(&wgpu.Color{
		R: float64(options.R),
		G: float64(options.G),
		B: float64(options.B),
		A: float64(options.A),
	})
}

func (r *Renderer) SetupCamera(camera gfx.Camera, viewport gfx.Viewport) {
	r.viewport = viewport

	world := camera.WorldMatrix()
	view := world.Inv()
	proj := projection(camera, viewport)
	viewProj := proj.Mul4(view)

	err := r.rm.StreamDataToUniformBuffer(r.camera, func(dst []byte) {
		packCameraUBO(dst, world, view, proj, viewProj)
	})
	if err != nil {
		r.logger.Errorf("camera upload: %v", err)
		return
	}
	r.rm.BindUniformBufferBase(r.camera, CameraBinding)
}

// clampViewport fits v inside a width x height target.
func clampViewport(v gfx.Viewport, width, height int) gfx.Viewport {
	clamp := func(x, lo, hi int) int {
		if x < lo {
			return lo
		}
		if x > hi {
			return hi
		}
		return x
	}
	v.X = clamp(v.X, 0, width)
	v.Y = clamp(v.Y, 0, height)
	v.Width = clamp(v.Width, 0, width-v.X)
	v.Height = clamp(v.Height, 0, height-v.Y)
	return v
}

// checkIndices verifies a draw call against the index buffer it reads.
func checkIndices(call gfx.DrawCall, v *vertexArray) error {
	if v.indexType != call.IndexType {
		return fmt.Errorf("gpu: draw uses %s indices but %s holds %s", call.IndexType, v.label, v.indexType)
	}
	if call.NumIndices < 0 || call.NumIndices*call.IndexType.Size() > v.size {
		return fmt.Errorf("gpu: %d indices overrun %s (%d bytes)", call.NumIndices, v.label, v.size)
	}
	return nil
}

func (r *Renderer) Draw(drawCalls []gfx.DrawCall) {
	width, height := r.device.Size()
	viewport := clampViewport(r.viewport, width, height)
	if viewport.Width == 0 || viewport.Height == 0 {
		return
	}

	err := r.device.encodePass("particles", func(pass *wgpu.RenderPassEncoder) {
		pass.SetViewport(float32(viewport.X), float32(viewport.Y), float32(viewport.Width), float32(viewport.Height), 0, 1)
		for _, call := range drawCalls {
			if err := r.drawOne(pass, call); err != nil {
				r.logger.Errorf("draw skipped: %v", err)
			}
		}
	})
	if err != nil {
		r.logger.Errorf("%v", err)
	}
}

func (r *Renderer) drawOne(pass *wgpu.RenderPassEncoder, call gfx.DrawCall) error {
	if call.NumIndices == 0 {
		return nil
	}
	if _, ok := topologies[call.Mode]; !ok {
		if !r.warned[call.Mode] {
			r.warned[call.Mode] = true
			r.logger.Warnf("%v; draws with this mode are skipped", fmt.Errorf("%w: %s", gfx.ErrUnsupportedTopology, call.Mode))
		}
		return nil
	}

	v, ok := r.rm.vaos[call.VAO]
	if !ok {
		return fmt.Errorf("%w: vao %d", gfx.ErrUnknownHandle, call.VAO)
	}
	if err := checkIndices(call, v); err != nil {
		return err
	}

	r.rm.BindStorageBufferBase(call.StorageBuffer, call.StorageBufferBaseIndex)

	pipeline, bindings, err := r.rm.pipeline(call.Program, call.Mode, call.IndexType)
	if err != nil {
		return err
	}

	pass.SetPipeline(pipeline)
	for _, group := range []uint32{uniformGroup, storageGroup} {
		if len(bindings[group]) == 0 {
			continue
		}
		bg, err := r.rm.bindGroup(pipeline, group, bindings[group])
		if err != nil {
			return err
		}
		pass.SetBindGroup(group, bg, nil)
	}
	pass.SetIndexBuffer(v.index, indexFormats[call.IndexType], 0, uint64(v.size))
	pass.DrawIndexed(uint32(call.NumIndices), 1, 0, 0, 0)
	return nil
}

func (r *Renderer) Release() {
	r.rm.DeleteBuffer(r.camera)
	r.camera = gfx.InvalidBuffer
}

