package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTransformIdentity(t *testing.T) {
	tr := NewTransform()
	assert.Equal(t, mgl32.Ident4(), tr.ObjectToWorld())
	assertVec3(t, mgl32.Vec3{1, 0, 0}, tr.Right())
	assertVec3(t, mgl32.Vec3{0, 1, 0}, tr.Up())
	assertVec3(t, mgl32.Vec3{0, 0, -1}, tr.At())
}

func TestTransformRecomputesAfterChange(t *testing.T) {
	tr := NewTransform()
	_ = tr.ObjectToWorld()

	tr.Translate(mgl32.Vec3{1, 2, 3})
	tr.Translate(mgl32.Vec3{1, 0, 0})
	m := tr.ObjectToWorld()
	assertVec3(t, mgl32.Vec3{2, 2, 3}, m.Col(3).Vec3())

	tr.SetPosition(mgl32.Vec3{0, 0, 0})
	tr.SetScale(mgl32.Vec3{2, 2, 2})
	tr.SetRotation(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}))
	p := tr.ObjectToWorld().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -2}, p.Vec3())
}

func TestTransformWorldToObjectInverts(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(mgl32.Vec3{3, -1, 7})
	tr.SetRotation(mgl32.QuatRotate(0.7, mgl32.Vec3{1, 2, 3}.Normalize()))
	tr.SetScale(mgl32.Vec3{2, 0.5, 4})

	product := tr.WorldToObject().Mul4(tr.ObjectToWorld())
	if !product.ApproxEqualThreshold(mgl32.Ident4(), 1e-4) {
		t.Errorf("WorldToObject * ObjectToWorld = %v", product)
	}
}
