package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCamera struct {
	world           mgl32.Mat4
	fovy, near, far float32
}

func (c fixedCamera) WorldMatrix() mgl32.Mat4 { return c.world }
func (c fixedCamera) Fovy() float32           { return c.fovy }
func (c fixedCamera) Near() float32           { return c.near }
func (c fixedCamera) Far() float32            { return c.far }

func TestParseBindingsFromParticleShader(t *testing.T) {
	got := parseBindings(shaders.ParticleVertexWGSL)
	assert.Equal(t, map[uint32][]uint32{
		uniformGroup: {CameraBinding},
		storageGroup: {0},
	}, got)

	assert.Empty(t, parseBindings(shaders.ParticleFragmentWGSL))
}

func TestMergeBindingsSortsAndDedupes(t *testing.T) {
	dst := map[uint32][]uint32{0: {2}}
	mergeBindings(dst, parseBindings(`
		@group(0) @binding(1) var<uniform> a: A;
		@group( 0 )@binding( 2 ) var<uniform> b: B;
		@group(1) @binding(3) var<storage, read> c: C;
	`))
	assert.Equal(t, []uint32{1, 2}, dst[0])
	assert.Equal(t, []uint32{3}, dst[1])
}

func TestPrimitiveState(t *testing.T) {
	state, err := primitiveState(gfx.Triangles, gfx.UInt)
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, state.Topology)
	assert.Equal(t, wgpu.IndexFormatUndefined, state.StripIndexFormat)

	state, err = primitiveState(gfx.TriangleStrip, gfx.UShort)
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, state.Topology)
	assert.Equal(t, wgpu.IndexFormatUint16, state.StripIndexFormat, "strips restart on the index format")

	state, err = primitiveState(gfx.Points, gfx.UInt)
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyPointList, state.Topology)

	_, err = primitiveState(gfx.TriangleFan, gfx.UInt)
	assert.True(t, errors.Is(err, gfx.ErrUnsupportedTopology))
}

func TestPackCameraUBOLayout(t *testing.T) {
	buf := make([]byte, cameraUBOSize)
	world := mgl32.Translate3D(1, 2, 3)
	view := world.Inv()
	proj := mgl32.Perspective(1, 1.5, 1, 100)
	viewProj := proj.Mul4(view)

	packCameraUBO(buf, world, view, proj, viewProj)

	read := func(offset int) mgl32.Mat4 {
		var m mgl32.Mat4
		for i := range m {
			m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
		}
		return m
	}
	assert.Equal(t, world, read(0))
	assert.Equal(t, view, read(64))
	assert.Equal(t, proj, read(128))
	assert.Equal(t, viewProj, read(192))

	// Column-major: the translation lives in elements 12..14.
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4:])))
}

func TestProjectionMapsDepthToZeroOne(t *testing.T) {
	cam := fixedCamera{world: mgl32.Ident4(), fovy: math.Pi / 2, near: 1, far: 1000}
	proj := projection(cam, gfx.Viewport{Width: 800, Height: 600})

	depth := func(z float32) float32 {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, depth(-1), 1e-5, "near plane")
	assert.InDelta(t, 1, depth(-1000), 1e-4, "far plane")

	// x/y are untouched by the remap.
	glProj := mgl32.Perspective(math.Pi/2, 800.0/600.0, 1, 1000)
	assert.Equal(t, glProj.Row(0), proj.Row(0))
	assert.Equal(t, glProj.Row(1), proj.Row(1))
}

func TestClampViewport(t *testing.T) {
	assert.Equal(t,
		gfx.Viewport{X: 0, Y: 0, Width: 800, Height: 600},
		clampViewport(gfx.Viewport{Width: 800, Height: 600}, 800, 600))
	assert.Equal(t,
		gfx.Viewport{X: 100, Y: 0, Width: 700, Height: 600},
		clampViewport(gfx.Viewport{X: 100, Y: -5, Width: 1000, Height: 1000}, 800, 600))
	assert.Equal(t,
		gfx.Viewport{},
		clampViewport(gfx.Viewport{Width: 800, Height: 600}, 0, 0))
}

func TestCheckIndices(t *testing.T) {
	v := &vertexArray{label: "vao#test", size: 6 * 4 * 10, indexType: gfx.UInt}

	assert.NoError(t, checkIndices(gfx.DrawCall{IndexType: gfx.UInt, NumIndices: 60}, v))
	assert.Error(t, checkIndices(gfx.DrawCall{IndexType: gfx.UInt, NumIndices: 61}, v))
	assert.Error(t, checkIndices(gfx.DrawCall{IndexType: gfx.UShort, NumIndices: 6}, v))
}

func TestAlign4(t *testing.T) {
	for in, want := range map[int]int{0: 0, 1: 4, 4: 4, 6: 8, 256: 256} {
		if got := align4(in); got != want {
			t.Errorf("align4(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBindGroupKeyReferences(t *testing.T) {
	k := bindGroupKey{group: storageGroup}
	k.buffers[0] = 7
	assert.True(t, k.references(7))
	assert.False(t, k.references(8))
}
