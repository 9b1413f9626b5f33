package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ClearOptions selects which parts of the back buffer are cleared and to what.
type ClearOptions struct {
	ClearColor   bool
	ClearDepth   bool
	ClearStencil bool
	R, G, B, A   float32
	Depth        float32
	StencilValue int
}

// Viewport is the target rectangle on screen in pixels.
type Viewport struct {
	X, Y          int
	Width, Height int
}

func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// Camera is what a renderer needs to build view and projection matrices.
type Camera interface {
	WorldMatrix() mgl32.Mat4
	Fovy() float32
	Near() float32
	Far() float32
}

type Renderer interface {
	Clear(options ClearOptions)
	SetupCamera(camera Camera, viewport Viewport)
	Draw(drawCalls []DrawCall)
}

// Device is the presentation side of a backend.
type Device interface {
	SwapBuffers()
	Resize(width, height int)
	Release()
}
