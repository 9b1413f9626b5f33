package sim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	VertsPerParticle    = 4 // quad corners
	IndicesPerParticle  = 6 // two triangles
	NumShaderProperties = 3 // position, color, size

	// Every property occupies a 16-byte vec4 slot, including the scalar size.
	propertyStride = 16

	// StorageBinding is the storage-buffer binding point the particle shader reads.
	StorageBinding uint32 = 0
)

func DefaultShaders() []gfx.ShaderSource {
	return []gfx.ShaderSource{
		{Type: gfx.VertexShader, Source: shaders.ParticleVertexWGSL, Label: "particle.vert"},
		{Type: gfx.FragmentShader, Source: shaders.ParticleFragmentWGSL, Label: "particle.frag"},
	}
}

// SegmentSize is the byte size of one of the three property segments.
func (s *Simulation) SegmentSize() int {
	return s.pool.Capacity() * propertyStride
}

// StorageSize is the byte size of the streaming storage buffer.
func (s *Simulation) StorageSize() int {
	return NumShaderProperties * s.SegmentSize()
}

// BuildIndices returns the static little-endian uint32 index buffer:
// 0,1,2,0,2,3 offset by 4 for every particle.
func BuildIndices(maxParticles int) []byte {
	buf := make([]byte, maxParticles*IndicesPerParticle*4)
	quad := [IndicesPerParticle]uint32{0, 1, 2, 0, 2, 3}
	for i := 0; i < maxParticles; i++ {
		base := uint32(i * VertsPerParticle)
		start := i * IndicesPerParticle * 4
		for j, corner := range quad {
			binary.LittleEndian.PutUint32(buf[start+j*4:], base+corner)
		}
	}
	return buf
}

// InitGraphicsResources compiles the particle program and allocates the
// streaming storage buffer and index buffer. It must be called exactly once
// before GetDrawCalls.
func (s *Simulation) InitGraphicsResources(rm gfx.ResourceManager) error {
	if s.initialized {
		return ErrAlreadyInitialized
	}

	sources := s.config.Shaders
	if len(sources) == 0 {
		sources = DefaultShaders()
	}

	program, err := rm.CreateProgramFromSource(sources)
	if err != nil {
		return fmt.Errorf("sim: particle program: %w", err)
	}

	storage, err := rm.CreateStreamingStorageBuffer(s.StorageSize(), nil)
	if err != nil {
		rm.DeleteProgram(program)
		return fmt.Errorf("sim: particle storage buffer: %w", err)
	}

	indices := BuildIndices(s.pool.Capacity())
	vao, err := rm.CreateVAO(gfx.VAOConfig{
		IndexBufferSizeBytes: len(indices),
		IndexData:            indices,
		IndexType:            gfx.UInt,
	})
	if err != nil {
		rm.DeleteBuffer(storage)
		rm.DeleteProgram(program)
		return fmt.Errorf("sim: particle index buffer: %w", err)
	}

	s.program = program
	s.storage = storage
	s.vao = vao
	s.initialized = true
	return nil
}

// ReleaseGraphicsResources deletes what InitGraphicsResources created.
func (s *Simulation) ReleaseGraphicsResources(rm gfx.ResourceManager) {
	if !s.initialized {
		return
	}
	rm.DeleteVAO(s.vao)
	rm.DeleteBuffer(s.storage)
	rm.DeleteProgram(s.program)
	s.program = gfx.InvalidProgram
	s.storage = gfx.InvalidBuffer
	s.vao = gfx.InvalidVAO
	s.initialized = false
}

func putVec4(dst []byte, v mgl32.Vec4) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(v[3]))
}

// Pack writes every live particle into dst as three contiguous segments,
// positions | colors | sizes, using the same entry index in each segment.
// Entries past the returned live count are left untouched. dst must be at
// least StorageSize bytes; a shorter dst packs nothing.
func (s *Simulation) Pack(dst []byte) int {
	segment := s.SegmentSize()
	if len(dst) < NumShaderProperties*segment {
		return 0
	}
	positions := dst[:segment]
	colors := dst[segment : 2*segment]
	sizes := dst[2*segment : 3*segment]

	n := 0
	s.pool.Live(func(_ int, p *Particle) {
		off := n * propertyStride
		putVec4(positions[off:], p.Position)
		putVec4(colors[off:], p.Color)
		putVec4(sizes[off:], mgl32.Vec4{p.Size, 0, 0, 0})
		n++
	})
	return n
}

// GetDrawCalls streams this frame's live particles to the GPU and appends
// the draw call that renders them.
func (s *Simulation) GetDrawCalls(rm gfx.ResourceManager, drawCalls []gfx.DrawCall) ([]gfx.DrawCall, error) {
	if !s.initialized {
		return drawCalls, ErrNotInitialized
	}

	live := 0
	err := rm.StreamDataToStorageBuffer(s.storage, func(dst []byte) {
		live = s.Pack(dst)
	})
	if err != nil {
		return drawCalls, fmt.Errorf("sim: stream particles: %w", err)
	}

	return append(drawCalls, gfx.DrawCall{
		Mode:                   gfx.Triangles,
		IndexType:              gfx.UInt,
		NumIndices:             live * IndicesPerParticle,
		Program:                s.program,
		VAO:                    s.vao,
		StorageBuffer:          s.storage,
		StorageBufferBaseIndex: StorageBinding,
	}), nil
}
