// Package gfxtest provides an in-memory gfx backend that records every call,
// for tests that exercise code against gfx interfaces without a GPU.
package gfxtest

import (
	"fmt"

	"github.com/gekko3d/particles/particlert/rt/gfx"
)

type Buffer struct {
	Kind  string
	Data  []byte
	Binds []uint32
}

type Program struct {
	Shaders []gfx.ShaderSource
}

type VAO struct {
	Config gfx.VAOConfig
}

// ResourceManager keeps resources in maps keyed by handle. Streamed bytes
// persist between writes so tests can observe stale trailing data.
type ResourceManager struct {
	Programs map[gfx.ProgramHandle]*Program
	Buffers  map[gfx.BufferHandle]*Buffer
	VAOs     map[gfx.VAOHandle]*VAO

	// FailPrograms makes every CreateProgramFromSource fail with this log.
	FailPrograms string

	Streams  int
	next     uint32
	lastErr  string
	Uniforms map[uint32]gfx.BufferHandle
	Storage  map[uint32]gfx.BufferHandle
}

func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		Programs: make(map[gfx.ProgramHandle]*Program),
		Buffers:  make(map[gfx.BufferHandle]*Buffer),
		VAOs:     make(map[gfx.VAOHandle]*VAO),
		Uniforms: make(map[uint32]gfx.BufferHandle),
		Storage:  make(map[uint32]gfx.BufferHandle),
		next:     1,
	}
}

func (m *ResourceManager) handle() uint32 {
	h := m.next
	m.next++
	return h
}

func (m *ResourceManager) fail(format string, args ...any) error {
	m.lastErr = fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s", gfx.ErrResourceCreation, m.lastErr)
}

func (m *ResourceManager) CreateProgramFromSource(shaders []gfx.ShaderSource) (gfx.ProgramHandle, error) {
	if m.FailPrograms != "" {
		return gfx.InvalidProgram, m.fail("%s", m.FailPrograms)
	}
	if len(shaders) == 0 {
		return gfx.InvalidProgram, m.fail("no shader sources")
	}
	h := gfx.ProgramHandle(m.handle())
	m.Programs[h] = &Program{Shaders: append([]gfx.ShaderSource(nil), shaders...)}
	return h, nil
}

func (m *ResourceManager) DeleteProgram(program gfx.ProgramHandle) {
	delete(m.Programs, program)
}

func (m *ResourceManager) createBuffer(kind string, size int, initial []byte) (gfx.BufferHandle, error) {
	if size <= 0 {
		return gfx.InvalidBuffer, m.fail("%s buffer size %d", kind, size)
	}
	data := make([]byte, size)
	copy(data, initial)
	h := gfx.BufferHandle(m.handle())
	m.Buffers[h] = &Buffer{Kind: kind, Data: data}
	return h, nil
}

func (m *ResourceManager) stream(kind string, buffer gfx.BufferHandle, write gfx.BufferWriter) error {
	b, ok := m.Buffers[buffer]
	if !ok || b.Kind != kind {
		return fmt.Errorf("%w: %s buffer %d", gfx.ErrUnknownHandle, kind, buffer)
	}
	m.Streams++
	write(b.Data[:len(b.Data):len(b.Data)])
	return nil
}

func (m *ResourceManager) CreateStreamingUniformBuffer(size int, initialData []byte) (gfx.BufferHandle, error) {
	return m.createBuffer("uniform", size, initialData)
}

func (m *ResourceManager) StreamDataToUniformBuffer(buffer gfx.BufferHandle, write gfx.BufferWriter) error {
	return m.stream("uniform", buffer, write)
}

func (m *ResourceManager) CreateStreamingStorageBuffer(size int, initialData []byte) (gfx.BufferHandle, error) {
	return m.createBuffer("storage", size, initialData)
}

func (m *ResourceManager) StreamDataToStorageBuffer(buffer gfx.BufferHandle, write gfx.BufferWriter) error {
	return m.stream("storage", buffer, write)
}

func (m *ResourceManager) DeleteBuffer(buffer gfx.BufferHandle) {
	delete(m.Buffers, buffer)
}

func (m *ResourceManager) CreateVAO(config gfx.VAOConfig) (gfx.VAOHandle, error) {
	if config.IndexBufferSizeBytes != len(config.IndexData) {
		return gfx.InvalidVAO, m.fail("index size %d != data %d", config.IndexBufferSizeBytes, len(config.IndexData))
	}
	h := gfx.VAOHandle(m.handle())
	cfg := config
	cfg.IndexData = append([]byte(nil), config.IndexData...)
	m.VAOs[h] = &VAO{Config: cfg}
	return h, nil
}

func (m *ResourceManager) DeleteVAO(vao gfx.VAOHandle) {
	delete(m.VAOs, vao)
}

func (m *ResourceManager) BindUniformBufferBase(buffer gfx.BufferHandle, index uint32) {
	m.Uniforms[index] = buffer
	if b, ok := m.Buffers[buffer]; ok {
		b.Binds = append(b.Binds, index)
	}
}

func (m *ResourceManager) BindStorageBufferBase(buffer gfx.BufferHandle, index uint32) {
	m.Storage[index] = buffer
	if b, ok := m.Buffers[buffer]; ok {
		b.Binds = append(b.Binds, index)
	}
}

func (m *ResourceManager) LastError() string {
	return m.lastErr
}

// Renderer and Device append to a shared call log so tests can assert order.
type Renderer struct {
	Log       *[]string
	Clears    []gfx.ClearOptions
	Viewports []gfx.Viewport
	Draws     [][]gfx.DrawCall
}

func (r *Renderer) Clear(options gfx.ClearOptions) {
	r.Clears = append(r.Clears, options)
	r.record("clear")
}

func (r *Renderer) SetupCamera(camera gfx.Camera, viewport gfx.Viewport) {
	r.Viewports = append(r.Viewports, viewport)
	r.record("camera")
}

func (r *Renderer) Draw(drawCalls []gfx.DrawCall) {
	r.Draws = append(r.Draws, append([]gfx.DrawCall(nil), drawCalls...))
	r.record("draw")
}

func (r *Renderer) record(call string) {
	if r.Log != nil {
		*r.Log = append(*r.Log, call)
	}
}

type Device struct {
	Log      *[]string
	Swaps    int
	Width    int
	Height   int
	Released bool
}

func (d *Device) SwapBuffers() {
	d.Swaps++
	if d.Log != nil {
		*d.Log = append(*d.Log, "swap")
	}
}

func (d *Device) Resize(width, height int) {
	d.Width, d.Height = width, height
}

func (d *Device) Release() {
	d.Released = true
}

// NewSystem wires a recording backend whose renderer and device share one log.
func NewSystem() (*gfx.System, *[]string) {
	log := &[]string{}
	return &gfx.System{
		API:             gfx.APIWebGPU,
		Device:          &Device{Log: log},
		ResourceManager: NewResourceManager(),
		Renderer:        &Renderer{Log: log},
	}, log
}
