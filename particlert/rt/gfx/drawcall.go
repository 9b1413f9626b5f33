package gfx

type Mode int

const (
	Triangles Mode = iota
	TriangleStrip
	TriangleFan
	Points
	Lines
)

func (m Mode) String() string {
	switch m {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	case Points:
		return "points"
	case Lines:
		return "lines"
	}
	return "unknown"
}

type IndexType int

const (
	UInt IndexType = iota
	UShort
)

// Size returns the byte size of one index.
func (t IndexType) Size() int {
	if t == UShort {
		return 2
	}
	return 4
}

func (t IndexType) String() string {
	if t == UShort {
		return "uint16"
	}
	return "uint32"
}

// DrawCall describes one indexed draw submission without referring to any
// graphics API.
type DrawCall struct {
	Mode       Mode
	IndexType  IndexType
	NumIndices int

	Program                ProgramHandle
	VAO                    VAOHandle
	StorageBuffer          BufferHandle
	StorageBufferBaseIndex uint32
}
