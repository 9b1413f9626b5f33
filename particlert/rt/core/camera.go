package core

import (
	"math"

	"github.com/gekko3d/particles/particlert/rt/input"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultMoveSpeed    = 8    // units per second
	DefaultRotationRate = 0.05 // radians per pixel per second
	DefaultPitchLimit   = 1.55 // just under 90 degrees
)

// Camera is a free-fly camera: WASD moves across the ground plane and the
// mouse turns it.
type Camera struct {
	Transform *Transform

	Yaw   float32
	Pitch float32

	MoveSpeed    float32
	RotationRate float32
	PitchLimit   float32

	fovy      float32
	nearPlane float32
	farPlane  float32
}

func NewCamera() *Camera {
	c := &Camera{
		Transform:    NewTransform(),
		MoveSpeed:    DefaultMoveSpeed,
		RotationRate: DefaultRotationRate,
		PitchLimit:   DefaultPitchLimit,
		fovy:         math.Pi / 2,
		nearPlane:    1,
		farPlane:     1000,
	}
	c.Transform.Translate(mgl32.Vec3{0, 1, 0})
	return c
}

// Fovy is the vertical field of view in radians.
func (c *Camera) Fovy() float32 { return c.fovy }
func (c *Camera) Near() float32 { return c.nearPlane }
func (c *Camera) Far() float32  { return c.farPlane }

func (c *Camera) WorldMatrix() mgl32.Mat4 {
	return c.Transform.ObjectToWorld()
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return c.Transform.WorldToObject()
}

func (c *Camera) SetProjection(fovy, near, far float32) {
	c.fovy, c.nearPlane, c.farPlane = fovy, near, far
}

// SetOrientation sets yaw and pitch in radians, clamping pitch.
func (c *Camera) SetOrientation(yaw, pitch float32) {
	c.Yaw = yaw
	c.Pitch = mgl32.Clamp(pitch, -c.PitchLimit, c.PitchLimit)
	c.updateRotation()
}

func (c *Camera) updateRotation() {
	// Yaw about world Y, then pitch about the local X axis.
	yaw := mgl32.QuatRotate(c.Yaw, mgl32.Vec3{0, 1, 0})
	pitch := mgl32.QuatRotate(c.Pitch, mgl32.Vec3{1, 0, 0})
	c.Transform.SetRotation(yaw.Mul(pitch))
}

// groundAt is the look direction flattened onto the XZ plane.
func (c *Camera) groundAt() mgl32.Vec3 {
	dir := c.Transform.At()
	dir[1] = 0
	if dir.Len() == 0 {
		return dir
	}
	return dir.Normalize()
}

func (c *Camera) ProcessInput(kb input.KeyState, mouse input.MouseState, dt float32) {
	step := dt * c.MoveSpeed

	var offset mgl32.Vec3
	moved := false
	if kb.IsKeyDown(input.KeyW) {
		offset = offset.Add(c.groundAt().Mul(step))
		moved = true
	}
	if kb.IsKeyDown(input.KeyS) {
		offset = offset.Sub(c.groundAt().Mul(step))
		moved = true
	}
	if kb.IsKeyDown(input.KeyD) {
		offset = offset.Add(c.Transform.Right().Mul(step))
		moved = true
	}
	if kb.IsKeyDown(input.KeyA) {
		offset = offset.Sub(c.Transform.Right().Mul(step))
		moved = true
	}
	if moved {
		c.Transform.Translate(offset)
	}

	dx, dy := float32(mouse.DeltaX()), float32(mouse.DeltaY())
	if dx == 0 && dy == 0 {
		return
	}
	if dx != 0 {
		c.Yaw += dt * c.RotationRate * -dx
	}
	if dy != 0 {
		c.Pitch += dt * c.RotationRate * -dy
		c.Pitch = mgl32.Clamp(c.Pitch, -c.PitchLimit, c.PitchLimit)
	}
	c.updateRotation()
}
