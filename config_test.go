package particles

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigMatchesDefaultEmitter(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	simCfg, err := cfg.SimulationConfig()
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultEmitter(), simCfg.Emitter)
	assert.Equal(t, 100000, simCfg.MaxParticles)
	assert.Empty(t, simCfg.Shaders)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "particles.toml", `
debug = true

[window]
width = 640
height = 480

[simulation]
max_particles = 500

[emitter]
hops = 5
drag = 0.0
start_color = "gold"
end_color = "#10203040"

[clear]
color = "black"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, "Particles", cfg.Window.Title, "omitted keys keep defaults")

	simCfg, err := cfg.SimulationConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, simCfg.MaxParticles)
	assert.Equal(t, 5, simCfg.Emitter.NumHops)
	assert.Equal(t, float32(0), simCfg.Emitter.Drag)
	assert.Equal(t, mgl32.Vec4{1, float32(215) / 255, 0, 1}, simCfg.Emitter.ParticleStartColor)
	assert.Equal(t, sim.DefaultEmitter().ParticleMidColor, simCfg.Emitter.ParticleMidColor)
	assert.Equal(t, mgl32.Vec4{float32(0x10) / 255, float32(0x20) / 255, float32(0x30) / 255, float32(0x40) / 255}, simCfg.Emitter.ParticleEndColor)

	opts, err := cfg.ClearOptions()
	require.NoError(t, err)
	assert.True(t, opts.ClearColor)
	assert.Equal(t, float32(1), opts.A)
	assert.Equal(t, float32(0), opts.R)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "particles.yml", `
camera:
  fovy: 60
  position: [1, 2, 3]
emitter:
  particles_per_second: 1000
  position: [0, 0, -20]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, float32(60), cfg.Camera.FovyDegrees)
	assert.Equal(t, [3]float32{1, 2, 3}, cfg.Camera.Position)

	simCfg, err := cfg.SimulationConfig()
	require.NoError(t, err)
	assert.Equal(t, float32(1000), simCfg.Emitter.ParticlesPerSecond)
	assert.Equal(t, mgl32.Vec4{0, 0, -20, 1}, simCfg.Emitter.WorldPos)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(writeFile(t, dir, "particles.ini", "debug=1"))
	assert.ErrorIs(t, err, ErrUnknownConfigFormat)

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "bad.toml", "[emitter]\nhops = 0\n"))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)

	_, err = LoadConfig(writeFile(t, dir, "color.toml", "[clear]\ncolor = \"not-a-color\"\n"))
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = LoadConfig(writeFile(t, dir, "api.toml", "[simulation]\napi = \"opengl\"\n"))
	assert.True(t, errors.Is(err, gfx.ErrUnsupportedAPI))

	_, err = LoadConfig(writeFile(t, dir, "window.yaml", "window:\n  width: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseColor(t *testing.T) {
	tests := map[string]mgl32.Vec4{
		"#ff0000":   {1, 0, 0, 1},
		"#00ff0080": {0, 1, 0, float32(0x80) / 255},
		"White":     {1, 1, 1, 1},
		" black ":   {0, 0, 0, 1},
	}
	for in, want := range tests {
		got, err := ParseColor(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, bad := range []string{"", "#fff", "#gg0000", "nope"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, bad)
	}
}

func TestLoadShaderDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VertexShaderFile, "// vs")
	writeFile(t, dir, FragmentShaderFile, "// fs")

	sources, err := LoadShaderDir(dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, gfx.VertexShader, sources[0].Type)
	assert.Equal(t, "// vs", sources[0].Source)
	assert.Equal(t, gfx.FragmentShader, sources[1].Type)

	cfg := DefaultConfig()
	cfg.Simulation.ShaderDir = dir
	simCfg, err := cfg.SimulationConfig()
	require.NoError(t, err)
	assert.Len(t, simCfg.Shaders, 2)

	_, err = LoadShaderDir(t.TempDir())
	assert.Error(t, err)
}
