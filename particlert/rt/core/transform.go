package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translation, rotation and scale whose object-to-world
// matrix is rebuilt only after one of them changes.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	matrix mgl32.Mat4
	dirty  bool
}

func NewTransform() *Transform {
	return &Transform{
		position: mgl32.Vec3{0, 0, 0},
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		dirty:    true,
	}
}

func (t *Transform) Position() mgl32.Vec3 { return t.position }
func (t *Transform) Rotation() mgl32.Quat { return t.rotation }
func (t *Transform) Scale() mgl32.Vec3    { return t.scale }

func (t *Transform) Translate(offset mgl32.Vec3) {
	t.position = t.position.Add(offset)
	t.dirty = true
}

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *Transform) SetRotation(q mgl32.Quat) {
	t.rotation = q
	t.dirty = true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.dirty = true
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	if t.dirty {
		// M = T * R * S
		translate := mgl32.Translate3D(t.position.X(), t.position.Y(), t.position.Z())
		rotate := t.rotation.Mat4()
		scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())

		t.matrix = translate.Mul4(rotate).Mul4(scale)
		t.dirty = false
	}
	return t.matrix
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(1.0/t.scale.X(), 1.0/t.scale.Y(), 1.0/t.scale.Z())

	// Conjugate of a unit quaternion is its inverse.
	invRotate := t.rotation.Conjugate().Mat4()

	invTranslate := mgl32.Translate3D(-t.position.X(), -t.position.Y(), -t.position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

func (t *Transform) Right() mgl32.Vec3 {
	return t.ObjectToWorld().Col(0).Vec3()
}

func (t *Transform) Up() mgl32.Vec3 {
	return t.ObjectToWorld().Col(1).Vec3()
}

// At is the direction the object faces, -Z in object space.
func (t *Transform) At() mgl32.Vec3 {
	return t.ObjectToWorld().Col(2).Vec3().Mul(-1)
}
