// Package gfx is the graphics-API-agnostic surface shared by the simulation,
// the platform layer and the concrete backend. Nothing in here knows about a
// specific GPU API.
package gfx

import (
	"errors"
)

type (
	ProgramHandle uint32
	BufferHandle  uint32
	VAOHandle     uint32
)

// InvalidHandle is returned, together with a non-nil error, when a resource
// could not be created. ResourceManager.LastError holds the diagnostic.
const InvalidHandle = ^uint32(0)

const (
	InvalidProgram = ProgramHandle(InvalidHandle)
	InvalidBuffer  = BufferHandle(InvalidHandle)
	InvalidVAO     = VAOHandle(InvalidHandle)
)

var (
	ErrResourceCreation    = errors.New("gfx: resource creation failed")
	ErrUnknownHandle       = errors.New("gfx: unknown resource handle")
	ErrUnsupportedAPI      = errors.New("gfx: unsupported graphics api")
	ErrUnsupportedTopology = errors.New("gfx: unsupported primitive topology")
)

type ShaderType int

const (
	ComputeShader ShaderType = iota
	VertexShader
	FragmentShader
)

func (t ShaderType) String() string {
	switch t {
	case ComputeShader:
		return "compute"
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	}
	return "unknown"
}

type ShaderSource struct {
	Type   ShaderType
	Source string
	// Label names the shader in diagnostics; optional.
	Label string
}

type VAOConfig struct {
	IndexBufferSizeBytes int
	IndexData            []byte
	IndexType            IndexType
}

// BufferWriter fills a mapped streaming buffer. dst is exactly the size of the
// buffer's initial allocation and must not be retained after the call returns.
type BufferWriter func(dst []byte)

// ResourceManager creates, streams, binds and deletes GPU resources by handle.
type ResourceManager interface {
	CreateProgramFromSource(shaders []ShaderSource) (ProgramHandle, error)
	DeleteProgram(program ProgramHandle)

	CreateStreamingUniformBuffer(size int, initialData []byte) (BufferHandle, error)
	StreamDataToUniformBuffer(buffer BufferHandle, write BufferWriter) error

	CreateStreamingStorageBuffer(size int, initialData []byte) (BufferHandle, error)
	StreamDataToStorageBuffer(buffer BufferHandle, write BufferWriter) error

	DeleteBuffer(buffer BufferHandle)

	CreateVAO(config VAOConfig) (VAOHandle, error)
	DeleteVAO(vao VAOHandle)

	BindUniformBufferBase(buffer BufferHandle, index uint32)
	BindStorageBufferBase(buffer BufferHandle, index uint32)

	// LastError returns the diagnostic of the most recent failure, e.g. a
	// shader compiler log.
	LastError() string
}
