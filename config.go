package particles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/gekko3d/particles/particlert/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownConfigFormat = errors.New("particles: unknown config file format")
	ErrInvalidColor        = errors.New("particles: invalid color")
	ErrInvalidConfig       = errors.New("particles: invalid config")
)

// Shader file names looked up in a shader directory.
const (
	VertexShaderFile   = "particle_vert.wgsl"
	FragmentShaderFile = "particle_frag.wgsl"
)

type WindowConfig struct {
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Title  string `toml:"title" yaml:"title"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`
}

type CameraConfig struct {
	FovyDegrees  float32    `toml:"fovy" yaml:"fovy"`
	Near         float32    `toml:"near" yaml:"near"`
	Far          float32    `toml:"far" yaml:"far"`
	Position     [3]float32 `toml:"position" yaml:"position"`
	MoveSpeed    float32    `toml:"move_speed" yaml:"move_speed"`
	RotationRate float32    `toml:"rotation_rate" yaml:"rotation_rate"`
}

type SimulationSection struct {
	MaxParticles int    `toml:"max_particles" yaml:"max_particles"`
	API          string `toml:"api" yaml:"api"`
	ShaderDir    string `toml:"shader_dir" yaml:"shader_dir"`
}

// EmitterConfig mirrors sim.Emitter. Empty color strings keep the default
// emitter colors.
type EmitterConfig struct {
	CircleRadius       float32    `toml:"circle_radius" yaml:"circle_radius"`
	Hops               int        `toml:"hops" yaml:"hops"`
	HopHeight          float32    `toml:"hop_height" yaml:"hop_height"`
	HorizontalSpeed    float32    `toml:"horizontal_speed" yaml:"horizontal_speed"`
	OffsetRadius       float32    `toml:"offset_radius" yaml:"offset_radius"`
	Drag               float32    `toml:"drag" yaml:"drag"`
	Position           [3]float32 `toml:"position" yaml:"position"`
	MinLifetime        float32    `toml:"min_lifetime" yaml:"min_lifetime"`
	MaxLifetime        float32    `toml:"max_lifetime" yaml:"max_lifetime"`
	StartColor         string     `toml:"start_color" yaml:"start_color"`
	MidColor           string     `toml:"mid_color" yaml:"mid_color"`
	EndColor           string     `toml:"end_color" yaml:"end_color"`
	StartSize          float32    `toml:"start_size" yaml:"start_size"`
	MidSize            float32    `toml:"mid_size" yaml:"mid_size"`
	EndSize            float32    `toml:"end_size" yaml:"end_size"`
	ParticlesPerSecond float32    `toml:"particles_per_second" yaml:"particles_per_second"`
}

type ClearConfig struct {
	Color string `toml:"color" yaml:"color"`
}

type Config struct {
	Window     WindowConfig      `toml:"window" yaml:"window"`
	Camera     CameraConfig      `toml:"camera" yaml:"camera"`
	Simulation SimulationSection `toml:"simulation" yaml:"simulation"`
	Emitter    EmitterConfig     `toml:"emitter" yaml:"emitter"`
	Clear      ClearConfig       `toml:"clear" yaml:"clear"`
	Debug      bool              `toml:"debug" yaml:"debug"`
}

func DefaultConfig() Config {
	e := sim.DefaultEmitter()
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Particles",
			VSync:  true,
		},
		Camera: CameraConfig{
			FovyDegrees:  90,
			Near:         1,
			Far:          1000,
			Position:     [3]float32{0, 1, 0},
			MoveSpeed:    8,
			RotationRate: 0.05,
		},
		Simulation: SimulationSection{
			MaxParticles: 100000,
			API:          string(gfx.APIWebGPU),
		},
		Emitter: EmitterConfig{
			CircleRadius:       e.CircleRadius,
			Hops:               e.NumHops,
			HopHeight:          e.HopHeight,
			HorizontalSpeed:    e.HorizontalSpeed,
			OffsetRadius:       e.OffsetRadius,
			Drag:               e.Drag,
			Position:           [3]float32{e.WorldPos[0], e.WorldPos[1], e.WorldPos[2]},
			MinLifetime:        e.ParticleMinLifetime,
			MaxLifetime:        e.ParticleMaxLifetime,
			StartSize:          e.ParticleStartSize,
			MidSize:            e.ParticleMidSize,
			EndSize:            e.ParticleEndSize,
			ParticlesPerSecond: e.ParticlesPerSecond,
		},
		Clear: ClearConfig{Color: "#0094ed"},
	}
}

// LoadConfig reads path over DefaultConfig, so keys the file omits keep
// their defaults. The format follows the extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("particles: read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("particles: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Camera.FovyDegrees <= 0 || c.Camera.FovyDegrees >= 180:
		return fmt.Errorf("%w: camera fovy %g must be in (0, 180)", ErrInvalidConfig, c.Camera.FovyDegrees)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera near %g / far %g", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	if _, err := gfx.ParseAPI(c.Simulation.API); err != nil {
		return err
	}
	if _, err := ParseColor(c.Clear.Color); err != nil {
		return err
	}
	_, err := c.SimulationConfig()
	return err
}

// SimulationConfig builds the simulation config and validates it.
func (c Config) SimulationConfig() (sim.Config, error) {
	e := sim.DefaultEmitter()
	e.CircleRadius = c.Emitter.CircleRadius
	e.NumHops = c.Emitter.Hops
	e.HopHeight = c.Emitter.HopHeight
	e.HorizontalSpeed = c.Emitter.HorizontalSpeed
	e.OffsetRadius = c.Emitter.OffsetRadius
	e.Drag = c.Emitter.Drag
	e.WorldPos = mgl32.Vec4{c.Emitter.Position[0], c.Emitter.Position[1], c.Emitter.Position[2], 1}
	e.ParticleMinLifetime = c.Emitter.MinLifetime
	e.ParticleMaxLifetime = c.Emitter.MaxLifetime
	e.ParticleStartSize = c.Emitter.StartSize
	e.ParticleMidSize = c.Emitter.MidSize
	e.ParticleEndSize = c.Emitter.EndSize
	e.ParticlesPerSecond = c.Emitter.ParticlesPerSecond

	colors := []struct {
		value string
		dst   *mgl32.Vec4
	}{
		{c.Emitter.StartColor, &e.ParticleStartColor},
		{c.Emitter.MidColor, &e.ParticleMidColor},
		{c.Emitter.EndColor, &e.ParticleEndColor},
	}
	for _, col := range colors {
		if col.value == "" {
			continue
		}
		v, err := ParseColor(col.value)
		if err != nil {
			return sim.Config{}, err
		}
		*col.dst = v
	}

	if c.Simulation.MaxParticles <= 0 || c.Simulation.MaxParticles > sim.MaxCapacity {
		return sim.Config{}, fmt.Errorf("%w: max particles %d", sim.ErrInvalidConfig, c.Simulation.MaxParticles)
	}
	if err := e.Validate(); err != nil {
		return sim.Config{}, err
	}

	cfg := sim.DefaultConfig(c.Simulation.MaxParticles)
	cfg.Emitter = e
	if c.Simulation.ShaderDir != "" {
		shaders, err := LoadShaderDir(c.Simulation.ShaderDir)
		if err != nil {
			return sim.Config{}, err
		}
		cfg.Shaders = shaders
	}
	return cfg, nil
}

// ClearOptions is the per-frame clear derived from the clear section.
func (c Config) ClearOptions() (gfx.ClearOptions, error) {
	col, err := ParseColor(c.Clear.Color)
	if err != nil {
		return gfx.ClearOptions{}, err
	}
	return gfx.ClearOptions{
		ClearColor:   true,
		ClearDepth:   true,
		ClearStencil: true,
		R:            col[0],
		G:            col[1],
		B:            col[2],
		A:            col[3],
		Depth:        1,
		StencilValue: 0,
	}, nil
}

// LoadShaderDir reads the particle shaders from dir, replacing the embedded ones.
func LoadShaderDir(dir string) ([]gfx.ShaderSource, error) {
	files := []struct {
		name string
		typ  gfx.ShaderType
	}{
		{VertexShaderFile, gfx.VertexShader},
		{FragmentShaderFile, gfx.FragmentShader},
	}
	out := make([]gfx.ShaderSource, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("particles: load shader: %w", err)
		}
		out = append(out, gfx.ShaderSource{Type: f.typ, Source: string(src), Label: path})
	}
	return out, nil
}

// ParseColor accepts an SVG color name ("gold") or #rrggbb / #rrggbbaa.
func ParseColor(s string) (mgl32.Vec4, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return mgl32.Vec4{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		if len(hex) == 6 {
			hex += "ff"
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return mgl32.Vec4{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return mgl32.Vec4{
			float32(v>>24&0xff) / 255,
			float32(v>>16&0xff) / 255,
			float32(v>>8&0xff) / 255,
			float32(v&0xff) / 255,
		}, nil
	}

	named, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return mgl32.Vec4{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return mgl32.Vec4{
		float32(named.R) / 255,
		float32(named.G) / 255,
		float32(named.B) / 255,
		float32(named.A) / 255,
	}, nil
}
