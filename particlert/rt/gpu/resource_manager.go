package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/google/uuid"
)

type bufferKind int

const (
	uniformBuffer bufferKind = iota
	storageBuffer
)

func (k bufferKind) String() string {
	if k == uniformBuffer {
		return "uniform"
	}
	return "storage"
}

type program struct {
	label     string
	modules   map[gfx.ShaderType]*wgpu.ShaderModule
	bindings  map[uint32][]uint32 // group -> bindings the shaders declare
	pipelines map[pipelineKey]*wgpu.RenderPipeline
}

type buffer struct {
	label string
	kind  bufferKind
	size  int
	// staging is size rounded up to a multiple of 4, as WriteBuffer requires.
	staging []byte
	gpu     *wgpu.Buffer
}

type vertexArray struct {
	label     string
	index     *wgpu.Buffer
	size      int
	indexType gfx.IndexType
}

// ResourceManager implements gfx.ResourceManager on a wgpu device. Handles
// are small integers; the wgpu objects behind them never leave this package.
type ResourceManager struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	format wgpu.TextureFormat
	logger particles.Logger

	programs map[gfx.ProgramHandle]*program
	buffers  map[gfx.BufferHandle]*buffer
	vaos     map[gfx.VAOHandle]*vertexArray

	bindings   map[bindingSlot]gfx.BufferHandle
	bindGroups map[bindGroupKey]*wgpu.BindGroup

	next    uint32
	lastErr string
}

func NewResourceManager(device *wgpu.Device, format wgpu.TextureFormat, logger particles.Logger) *ResourceManager {
	return &ResourceManager{
		device:     device,
		queue:      device.GetQueue(),
		format:     format,
		logger:     particles.OrNop(logger),
		programs:   make(map[gfx.ProgramHandle]*program),
		buffers:    make(map[gfx.BufferHandle]*buffer),
		vaos:       make(map[gfx.VAOHandle]*vertexArray),
		bindings:   make(map[bindingSlot]gfx.BufferHandle),
		bindGroups: make(map[bindGroupKey]*wgpu.BindGroup),
		next:       1,
	}
}

func newLabel(kind string) string {
	return kind + "#" + uuid.NewString()
}

func (m *ResourceManager) handle() uint32 {
	h := m.next
	m.next++
	return h
}

// fail records a diagnostic for LastError and returns it wrapped in
// gfx.ErrResourceCreation.
func (m *ResourceManager) fail(format string, args ...any) error {
	m.lastErr = fmt.Sprintf(format, args...)
	m.logger.Errorf("%s", m.lastErr)
	return fmt.Errorf("%w: %s", gfx.ErrResourceCreation, m.lastErr)
}

func (m *ResourceManager) LastError() string {
	return m.lastErr
}

func (m *ResourceManager) CreateProgramFromSource(sources []gfx.ShaderSource) (gfx.ProgramHandle, error) {
	p := &program{
		label:     newLabel("program"),
		modules:   make(map[gfx.ShaderType]*wgpu.ShaderModule),
		bindings:  make(map[uint32][]uint32),
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}

	for _, src := range sources {
		if _, ok := shaderStages[src.Type]; !ok {
			m.releaseProgram(p)
			return gfx.InvalidProgram, m.fail("%s: unknown shader type %d", p.label, src.Type)
		}
		if _, dup := p.modules[src.Type]; dup {
			m.releaseProgram(p)
			return gfx.InvalidProgram, m.fail("%s: more than one %s shader", p.label, src.Type)
		}

		name := src.Label
		if name == "" {
			name = src.Type.String()
		}
		module, err := m.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          newLabel(name),
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Source},
		})
		if err != nil {
			m.releaseProgram(p)
			return gfx.InvalidProgram, m.fail("%s: compile %s shader %s: %v", p.label, src.Type, name, err)
		}
		p.modules[src.Type] = module
		mergeBindings(p.bindings, parseBindings(src.Source))
	}

	if p.modules[gfx.VertexShader] == nil || p.modules[gfx.FragmentShader] == nil {
		m.releaseProgram(p)
		return gfx.InvalidProgram, m.fail("%s: a program needs a vertex and a fragment shader", p.label)
	}

	// Link the default pipeline now so errors surface at creation time.
	if _, err := m.buildPipeline(p, pipelineKey{mode: gfx.Triangles, index: gfx.UInt}); err != nil {
		m.releaseProgram(p)
		return gfx.InvalidProgram, m.fail("%s: link: %v", p.label, err)
	}

	h := gfx.ProgramHandle(m.handle())
	m.programs[h] = p
	m.logger.Debugf("created %s (handle %d)", p.label, h)
	return h, nil
}

func (m *ResourceManager) releaseProgram(p *program) {
	for key, pipeline := range p.pipelines {
		m.dropBindGroups(func(k bindGroupKey) bool { return k.pipeline == pipeline })
		pipeline.Release()
		delete(p.pipelines, key)
	}
	for t, module := range p.modules {
		module.Release()
		delete(p.modules, t)
	}
}

func (m *ResourceManager) DeleteProgram(h gfx.ProgramHandle) {
	p, ok := m.programs[h]
	if !ok {
		return
	}
	m.releaseProgram(p)
	delete(m.programs, h)
}

func (m *ResourceManager) createBuffer(kind bufferKind, size int, initialData []byte) (gfx.BufferHandle, error) {
	label := newLabel(kind.String())
	if size <= 0 {
		return gfx.InvalidBuffer, m.fail("%s: size must be positive, got %d", label, size)
	}
	if len(initialData) > size {
		return gfx.InvalidBuffer, m.fail("%s: %d bytes of initial data exceed size %d", label, len(initialData), size)
	}

	usage := wgpu.BufferUsageStorage
	if kind == uniformBuffer {
		usage = wgpu.BufferUsageUniform
	}

	staging := make([]byte, align4(size))
	gpuBuf, err := m.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(staging)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return gfx.InvalidBuffer, m.fail("%s: %v", label, err)
	}
	if len(initialData) > 0 {
		copy(staging, initialData)
		m.queue.WriteBuffer(gpuBuf, 0, staging)
	}

	h := gfx.BufferHandle(m.handle())
	m.buffers[h] = &buffer{label: label, kind: kind, size: size, staging: staging, gpu: gpuBuf}
	m.logger.Debugf("created %s, %d bytes (handle %d)", label, size, h)
	return h, nil
}

// stream hands the writer a view of exactly size bytes whose capacity is
// clipped, then uploads the whole staging slice.
func (m *ResourceManager) stream(kind bufferKind, h gfx.BufferHandle, write gfx.BufferWriter) error {
	b, ok := m.buffers[h]
	if !ok || b.kind != kind {
		return fmt.Errorf("%w: %s buffer %d", gfx.ErrUnknownHandle, kind, h)
	}
	write(b.staging[:b.size:b.size])
	m.queue.WriteBuffer(b.gpu, 0, b.staging)
	return nil
}

func (m *ResourceManager) CreateStreamingUniformBuffer(size int, initialData []byte) (gfx.BufferHandle, error) {
	return m.createBuffer(uniformBuffer, size, initialData)
}

func (m *ResourceManager) StreamDataToUniformBuffer(h gfx.BufferHandle, write gfx.BufferWriter) error {
	return m.stream(uniformBuffer, h, write)
}

func (m *ResourceManager) CreateStreamingStorageBuffer(size int, initialData []byte) (gfx.BufferHandle, error) {
	return m.createBuffer(storageBuffer, size, initialData)
}

func (m *ResourceManager) StreamDataToStorageBuffer(h gfx.BufferHandle, write gfx.BufferWriter) error {
	return m.stream(storageBuffer, h, write)
}

func (m *ResourceManager) DeleteBuffer(h gfx.BufferHandle) {
	b, ok := m.buffers[h]
	if !ok {
		return
	}
	m.dropBindGroups(func(k bindGroupKey) bool { return k.references(h) })
	for slot, bound := range m.bindings {
		if bound == h {
			delete(m.bindings, slot)
		}
	}
	b.gpu.Release()
	delete(m.buffers, h)
}

func (m *ResourceManager) CreateVAO(config gfx.VAOConfig) (gfx.VAOHandle, error) {
	label := newLabel("vao")
	if config.IndexBufferSizeBytes <= 0 {
		return gfx.InvalidVAO, m.fail("%s: index buffer size must be positive, got %d", label, config.IndexBufferSizeBytes)
	}
	if len(config.IndexData) > config.IndexBufferSizeBytes {
		return gfx.InvalidVAO, m.fail("%s: %d bytes of index data exceed size %d", label, len(config.IndexData), config.IndexBufferSizeBytes)
	}

	data := make([]byte, align4(config.IndexBufferSizeBytes))
	copy(data, config.IndexData)

	index, err := m.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return gfx.InvalidVAO, m.fail("%s: %v", label, err)
	}
	m.queue.WriteBuffer(index, 0, data)

	h := gfx.VAOHandle(m.handle())
	m.vaos[h] = &vertexArray{
		label:     label,
		index:     index,
		size:      config.IndexBufferSizeBytes,
		indexType: config.IndexType,
	}
	m.logger.Debugf("created %s, %d %s indices (handle %d)", label,
		config.IndexBufferSizeBytes/config.IndexType.Size(), config.IndexType, h)
	return h, nil
}

func (m *ResourceManager) DeleteVAO(h gfx.VAOHandle) {
	v, ok := m.vaos[h]
	if !ok {
		return
	}
	v.index.Release()
	delete(m.vaos, h)
}

func (m *ResourceManager) BindUniformBufferBase(h gfx.BufferHandle, index uint32) {
	m.bind(uniformBuffer, h, index)
}

func (m *ResourceManager) BindStorageBufferBase(h gfx.BufferHandle, index uint32) {
	m.bind(storageBuffer, h, index)
}

func (m *ResourceManager) bind(kind bufferKind, h gfx.BufferHandle, index uint32) {
	if b, ok := m.buffers[h]; !ok || b.kind != kind {
		m.logger.Warnf("bind %s binding %d: %v", kind, index, fmt.Errorf("%w: %d", gfx.ErrUnknownHandle, h))
		return
	}
	m.bindings[bindingSlot{group: groupFor(kind), binding: index}] = h
}

// Release deletes every resource that is still alive.
func (m *ResourceManager) Release() {
	for h := range m.vaos {
		m.DeleteVAO(h)
	}
	for h := range m.buffers {
		m.DeleteBuffer(h)
	}
	for h := range m.programs {
		m.DeleteProgram(h)
	}
	for k, bg := range m.bindGroups {
		bg.Release()
		delete(m.bindGroups, k)
	}
}

func align4(n int) int {
	return (n + 3) &^ 3
}
