package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gekko3d/particles/particlert/rt/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

// Gravity is the vertical acceleration applied to every live particle.
const Gravity float32 = -9.8

// MaxCapacity bounds MaxParticles so vertex indices fit in uint32.
const MaxCapacity = 1 << 24

var (
	ErrInvalidConfig      = errors.New("sim: invalid config")
	ErrAlreadyInitialized = errors.New("sim: graphics resources already initialized")
	ErrNotInitialized     = errors.New("sim: graphics resources not initialized")
)

type Config struct {
	MaxParticles int

	// Emitter defaults to DefaultEmitter when left zero.
	Emitter Emitter

	// Shaders defaults to the embedded particle shaders when empty.
	Shaders []gfx.ShaderSource

	// Rand returns values in [0,1). Defaults to the process-wide math/rand source.
	Rand func() float32
}

func DefaultConfig(maxParticles int) Config {
	return Config{
		MaxParticles: maxParticles,
		Emitter:      DefaultEmitter(),
	}
}

// Simulation owns a fixed pool of particles fed by one hopping emitter and
// streams the live ones to the GPU every frame.
type Simulation struct {
	config  Config
	emitter Emitter
	pool    *Pool
	rand    func() float32
	active  int

	initialized bool
	program     gfx.ProgramHandle
	storage     gfx.BufferHandle
	vao         gfx.VAOHandle
}

func New(config Config) (*Simulation, error) {
	if config.MaxParticles <= 0 || config.MaxParticles > MaxCapacity {
		return nil, fmt.Errorf("%w: max particles must be in [1, %d], got %d", ErrInvalidConfig, MaxCapacity, config.MaxParticles)
	}
	if config.Emitter == (Emitter{}) {
		config.Emitter = DefaultEmitter()
	}
	if err := config.Emitter.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		config:  config,
		emitter: config.Emitter,
		pool:    NewPool(config.MaxParticles),
		rand:    config.Rand,
		program: gfx.InvalidProgram,
		storage: gfx.InvalidBuffer,
		vao:     gfx.InvalidVAO,
	}
	if s.rand == nil {
		s.rand = rand.Float32
	}
	return s, nil
}

func (s *Simulation) Capacity() int {
	return s.pool.Capacity()
}

// ActiveParticleCount is the number of live particles after the last Update.
func (s *Simulation) ActiveParticleCount() int {
	return s.active
}

// Emitter exposes the emitter so callers can retune it between frames.
func (s *Simulation) Emitter() *Emitter {
	return &s.emitter
}

func (s *Simulation) randomFloat(min, max float32) float32 {
	return lerp(min, max, s.rand())
}

// Update advances the simulation by deltaT seconds: existing particles are
// integrated first, then new ones are emitted into dead slots.
func (s *Simulation) Update(deltaT float64) {
	if deltaT < 0 {
		deltaT = 0
	}
	dt := float32(deltaT)

	active := 0
	for i := range s.pool.slots {
		if s.step(&s.pool.slots[i], dt) {
			active++
		}
	}

	s.active = active + s.emit(deltaT, active)
}

// step ages a particle by dt and, if it is still alive, integrates it.
func (s *Simulation) step(p *Particle, dt float32) bool {
	p.Lifetime += dt
	if !p.Alive() {
		return false
	}
	s.integrate(p, dt)
	return true
}

// integrate applies one explicit Euler step. Damping uses the first-order
// factor (1 - drag*dt), which overshoots once drag*dt exceeds 1.
func (s *Simulation) integrate(p *Particle, dt float32) {
	e := &s.emitter

	p.Velocity[1] += Gravity * dt
	p.Velocity = p.Velocity.Mul(1 - e.Drag*dt)

	p.Position[0] += p.Velocity[0] * dt
	p.Position[1] += p.Velocity[1] * dt
	p.Position[2] += p.Velocity[2] * dt

	// Elastic bounce off the infinite y=0 plane.
	if p.Position[1] < 0 {
		p.Position[1] = -p.Position[1]
		p.Velocity[1] = -p.Velocity[1]
	}

	t := p.Lifetime / p.MaxLife
	p.Color = lerp3Vec4(e.ParticleStartColor, e.ParticleMidColor, e.ParticleEndColor, t)
	p.Size = lerp3(e.ParticleStartSize, e.ParticleMidSize, e.ParticleEndSize, t)
}

// emitBudget is the number of particles to emit this frame, never more than
// the number of dead slots.
func (s *Simulation) emitBudget(deltaT float64, active int) int {
	toEmit := int(float64(s.emitter.ParticlesPerSecond) * deltaT)
	if available := s.pool.Capacity() - active; toEmit > available {
		toEmit = available
	}
	if toEmit < 0 {
		toEmit = 0
	}
	return toEmit
}

// emit places this frame's new particles and returns how many of them are
// alive at the end of the frame.
func (s *Simulation) emit(deltaT float64, active int) int {
	e := &s.emitter
	dt := float32(deltaT)

	toEmit := s.emitBudget(deltaT, active)

	e.Lifetime += deltaT
	emitterPos, emitterVel := e.PathAt(e.Lifetime)

	emitted := 0
	budget := s.pool.Capacity()
	for i := 0; i < toEmit; i++ {
		p, ok := s.pool.claim(&budget)
		if !ok {
			// Cannot happen while toEmit <= dead slots; stop rather than
			// overwrite live particles.
			break
		}

		// Spread births over the frame so they do not appear in batches.
		birth := s.randomFloat(0, dt)

		radius := s.randomFloat(0, e.OffsetRadius)
		theta := s.randomFloat(0, pi)
		phi := s.randomFloat(-pi, pi)
		offset := mgl32.Vec3{
			math32.Cos(phi) * math32.Sin(theta) * radius,
			math32.Cos(theta) * radius,
			math32.Sin(phi) * math32.Sin(theta) * radius,
		}

		p.Position = mgl32.Vec4{
			e.WorldPos[0] + emitterPos[0] + offset[0],
			e.WorldPos[1] + emitterPos[1] + offset[1],
			e.WorldPos[2] + emitterPos[2] + offset[2],
			1,
		}
		p.Color = e.ParticleStartColor
		p.Velocity = mgl32.Vec3{
			emitterVel[0] + s.randomFloat(-1.5, 1.5),
			emitterVel[1] + s.randomFloat(-1.5, 1.5),
			emitterVel[2] + s.randomFloat(-1.5, 1.5),
		}
		p.Size = e.ParticleStartSize
		p.Lifetime = 0
		p.MaxLife = s.randomFloat(e.ParticleMinLifetime, e.ParticleMaxLifetime)

		// Catch up with particles that were born at the start of the frame.
		if s.step(p, dt-birth) {
			emitted++
		}
	}
	return emitted
}
