package shaders

import (
	_ "embed"
)

//go:embed particle_vert.wgsl
var ParticleVertexWGSL string

//go:embed particle_frag.wgsl
var ParticleFragmentWGSL string
