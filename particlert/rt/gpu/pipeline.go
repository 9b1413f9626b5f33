package gpu

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particles/particlert/rt/gfx"
)

// Uniform binding point N is @group(0) @binding(N); storage binding point N
// is @group(1) @binding(N).
const (
	uniformGroup uint32 = 0
	storageGroup uint32 = 1

	maxBindingsPerGroup = 8
)

type shaderStage struct {
	visibility wgpu.ShaderStage
	entryPoint string
}

var shaderStages = map[gfx.ShaderType]shaderStage{
	gfx.VertexShader:   {visibility: wgpu.ShaderStageVertex, entryPoint: "vs_main"},
	gfx.FragmentShader: {visibility: wgpu.ShaderStageFragment, entryPoint: "fs_main"},
	gfx.ComputeShader:  {visibility: wgpu.ShaderStageCompute, entryPoint: "main"},
}

var topologies = map[gfx.Mode]wgpu.PrimitiveTopology{
	gfx.Triangles:     wgpu.PrimitiveTopologyTriangleList,
	gfx.TriangleStrip: wgpu.PrimitiveTopologyTriangleStrip,
	gfx.Points:        wgpu.PrimitiveTopologyPointList,
	gfx.Lines:         wgpu.PrimitiveTopologyLineList,
}

var indexFormats = map[gfx.IndexType]wgpu.IndexFormat{
	gfx.UInt:   wgpu.IndexFormatUint32,
	gfx.UShort: wgpu.IndexFormatUint16,
}

type pipelineKey struct {
	mode  gfx.Mode
	index gfx.IndexType
}

type bindingSlot struct {
	group   uint32
	binding uint32
}

func groupFor(kind bufferKind) uint32 {
	if kind == uniformBuffer {
		return uniformGroup
	}
	return storageGroup
}

type bindGroupKey struct {
	pipeline *wgpu.RenderPipeline
	group    uint32
	buffers  [maxBindingsPerGroup]gfx.BufferHandle
}

func (k bindGroupKey) references(h gfx.BufferHandle) bool {
	for _, b := range k.buffers {
		if b == h {
			return true
		}
	}
	return false
}

var bindingAttr = regexp.MustCompile(`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)`)

// parseBindings lists the (group, binding) pairs a WGSL source declares.
func parseBindings(src string) map[uint32][]uint32 {
	out := make(map[uint32][]uint32)
	for _, match := range bindingAttr.FindAllStringSubmatch(src, -1) {
		group, err1 := strconv.ParseUint(match[1], 10, 32)
		binding, err2 := strconv.ParseUint(match[2], 10, 32)
		if err1 != nil || err2 != nil {
			continue
		}
		out[uint32(group)] = append(out[uint32(group)], uint32(binding))
	}
	return out
}

// mergeBindings adds src into dst keeping each group's bindings sorted and unique.
func mergeBindings(dst, src map[uint32][]uint32) {
	for group, bindings := range src {
		seen := make(map[uint32]bool, len(dst[group]))
		for _, b := range dst[group] {
			seen[b] = true
		}
		for _, b := range bindings {
			if !seen[b] {
				seen[b] = true
				dst[group] = append(dst[group], b)
			}
		}
		sort.Slice(dst[group], func(i, j int) bool { return dst[group][i] < dst[group][j] })
	}
}

func primitiveState(mode gfx.Mode, indexType gfx.IndexType) (wgpu.PrimitiveState, error) {
	topology, ok := topologies[mode]
	if !ok {
		return wgpu.PrimitiveState{}, fmt.Errorf("%w: %s", gfx.ErrUnsupportedTopology, mode)
	}
	format, ok := indexFormats[indexType]
	if !ok {
		return wgpu.PrimitiveState{}, fmt.Errorf("gpu: unknown index type %d", indexType)
	}

	state := wgpu.PrimitiveState{
		Topology:         topology,
		StripIndexFormat: wgpu.IndexFormatUndefined,
		FrontFace:        wgpu.FrontFaceCCW,
		CullMode:         wgpu.CullModeNone,
	}
	if topology == wgpu.PrimitiveTopologyTriangleStrip {
		state.StripIndexFormat = format
	}
	return state, nil
}

// additiveBlend makes overlapping particles brighten each other.
var additiveBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

func (m *ResourceManager) buildPipeline(p *program, key pipelineKey) (*wgpu.RenderPipeline, error) {
	if pipeline, ok := p.pipelines[key]; ok {
		return pipeline, nil
	}

	primitive, err := primitiveState(key.mode, key.index)
	if err != nil {
		return nil, err
	}

	pipeline, err := m.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("%s/%s/%s", p.label, key.mode, key.index),
		Vertex: wgpu.VertexState{
			Module:     p.modules[gfx.VertexShader],
			EntryPoint: shaderStages[gfx.VertexShader].entryPoint,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.modules[gfx.FragmentShader],
			EntryPoint: shaderStages[gfx.FragmentShader].entryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    m.format,
				Blend:     &additiveBlend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	p.pipelines[key] = pipeline
	return pipeline, nil
}

// pipeline returns the render pipeline of program h for the given topology
// and index type, building it on first use.
func (m *ResourceManager) pipeline(h gfx.ProgramHandle, mode gfx.Mode, indexType gfx.IndexType) (*wgpu.RenderPipeline, map[uint32][]uint32, error) {
	p, ok := m.programs[h]
	if !ok {
		return nil, nil, fmt.Errorf("%w: program %d", gfx.ErrUnknownHandle, h)
	}
	pipeline, err := m.buildPipeline(p, pipelineKey{mode: mode, index: indexType})
	if err != nil {
		return nil, nil, err
	}
	return pipeline, p.bindings, nil
}

// bindGroup returns the bind group for one group of pipeline, built from the
// current binding tables.
func (m *ResourceManager) bindGroup(pipeline *wgpu.RenderPipeline, group uint32, bindings []uint32) (*wgpu.BindGroup, error) {
	if len(bindings) > maxBindingsPerGroup {
		return nil, fmt.Errorf("gpu: group %d declares %d bindings, at most %d are supported", group, len(bindings), maxBindingsPerGroup)
	}

	key := bindGroupKey{pipeline: pipeline, group: group}
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	for i, binding := range bindings {
		h, ok := m.bindings[bindingSlot{group: group, binding: binding}]
		if !ok {
			return nil, fmt.Errorf("gpu: nothing bound to @group(%d) @binding(%d)", group, binding)
		}
		b := m.buffers[h]
		key.buffers[i] = h
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: binding,
			Buffer:  b.gpu,
			Offset:  0,
			Size:    uint64(len(b.staging)),
		})
	}

	if bg, ok := m.bindGroups[key]; ok {
		return bg, nil
	}
	bg, err := m.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   newLabel(fmt.Sprintf("bindgroup%d", group)),
		Layout:  pipeline.GetBindGroupLayout(group),
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	m.bindGroups[key] = bg
	return bg, nil
}

func (m *ResourceManager) dropBindGroups(match func(bindGroupKey) bool) {
	for k, bg := range m.bindGroups {
		if match(k) {
			bg.Release()
			delete(m.bindGroups, k)
		}
	}
}
