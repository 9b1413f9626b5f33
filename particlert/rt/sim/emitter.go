package sim

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	pi = float32(math.Pi)

	// floatEpsilon is the float32 machine epsilon.
	floatEpsilon = float32(1.1920929e-7)
)

// Emitter spawns particles from a point that hops around a circle: the circle
// is split into NumHops chords and each chord is crossed along a parabolic
// arc of height HopHeight at a constant HorizontalSpeed.
type Emitter struct {
	CircleRadius    float32
	NumHops         int
	HopHeight       float32
	HorizontalSpeed float32
	OffsetRadius    float32 // radius of the random spawn sphere around the emitter
	Drag            float32 // linear damping per second
	WorldPos        mgl32.Vec4

	ParticleMinLifetime float32
	ParticleMaxLifetime float32

	ParticleStartColor mgl32.Vec4
	ParticleMidColor   mgl32.Vec4
	ParticleEndColor   mgl32.Vec4

	ParticleStartSize float32
	ParticleMidSize   float32
	ParticleEndSize   float32

	ParticlesPerSecond float32

	// Lifetime is the number of seconds the emitter has been running.
	Lifetime float64
}

func DefaultEmitter() Emitter {
	return Emitter{
		CircleRadius:        20,
		NumHops:             8,
		HopHeight:           3,
		HorizontalSpeed:     25,
		OffsetRadius:        1,
		Drag:                0.9,
		WorldPos:            mgl32.Vec4{0, 0, -10, 1},
		ParticleMinLifetime: 2.7,
		ParticleMaxLifetime: 3.0,
		ParticleStartColor:  mgl32.Vec4{1.0, 1.0, 0.1, 1.0},
		ParticleMidColor:    mgl32.Vec4{1.0, 0.1, 0.1, 1.0},
		ParticleEndColor:    mgl32.Vec4{0.2, 0.1, 0.2, 1.0},
		ParticleStartSize:   0.1,
		ParticleMidSize:     0.1,
		ParticleEndSize:     0.1,
		ParticlesPerSecond:  30000,
	}
}

func (e *Emitter) Validate() error {
	switch {
	case e.NumHops <= 0:
		return fmt.Errorf("%w: emitter hops must be positive, got %d", ErrInvalidConfig, e.NumHops)
	case e.CircleRadius < 0:
		return fmt.Errorf("%w: emitter circle radius must not be negative, got %g", ErrInvalidConfig, e.CircleRadius)
	case e.HorizontalSpeed < 0:
		return fmt.Errorf("%w: emitter horizontal speed must not be negative, got %g", ErrInvalidConfig, e.HorizontalSpeed)
	case e.OffsetRadius < 0:
		return fmt.Errorf("%w: emitter offset radius must not be negative, got %g", ErrInvalidConfig, e.OffsetRadius)
	case e.Drag < 0:
		return fmt.Errorf("%w: emitter drag must not be negative, got %g", ErrInvalidConfig, e.Drag)
	case e.ParticlesPerSecond < 0:
		return fmt.Errorf("%w: emission rate must not be negative, got %g", ErrInvalidConfig, e.ParticlesPerSecond)
	case e.ParticleMinLifetime <= 0 || e.ParticleMaxLifetime < e.ParticleMinLifetime:
		return fmt.Errorf("%w: particle lifetime range [%g, %g] is invalid", ErrInvalidConfig, e.ParticleMinLifetime, e.ParticleMaxLifetime)
	}
	return nil
}

// hopPoint is the ground position of hop boundary i on the circle.
func (e *Emitter) hopPoint(i int) mgl32.Vec3 {
	radians := 2 * pi / float32(e.NumHops) * float32(i)
	return mgl32.Vec3{
		e.CircleRadius * math32.Cos(radians),
		0,
		e.CircleRadius * math32.Sin(radians),
	}
}

// PathAt returns the emitter's offset from WorldPos and its velocity after
// lifetime seconds. It depends only on lifetime and the emitter parameters.
func (e *Emitter) PathAt(lifetime float64) (position, velocity mgl32.Vec3) {
	radiansPerHop := 2 * pi / float32(e.NumHops)
	hopLength := 2 * e.CircleRadius * math32.Sin(radiansPerHop*0.5)

	// A zero radius, or a single hop whose chord collapses to a point,
	// leaves the emitter bouncing in place at the first hop boundary.
	hop, t := 0, float32(0)
	if hopLength > floatEpsilon {
		perimeter := float64(hopLength) * float64(e.NumHops)
		traveled := math.Mod(float64(e.HorizontalSpeed)*lifetime, perimeter)
		if traveled < 0 {
			traveled += perimeter
		}
		hop = int(traveled / float64(hopLength))
		t = float32((traveled - float64(hop)*float64(hopLength)) / float64(hopLength))
		hop %= e.NumHops
	}

	before := e.hopPoint(hop)
	next := e.hopPoint((hop + 1) % e.NumHops)

	h := e.HopHeight
	position = lerpVec3(before, next, t)
	position[1] = 4*h*t - 4*h*t*t

	// s is 1 where the arc touches the circle and 0 at the apex.
	s := math32.Pow(1-(4*t-4*t*t), 4)

	var dir mgl32.Vec3
	if position.Len() > 0 {
		dir = position.Normalize()
	}
	tangential := mgl32.Vec3{-dir.Z() * e.HorizontalSpeed, 0, dir.X() * e.HorizontalSpeed}

	velocity = tangential
	if 1-s >= floatEpsilon {
		chord := next.Sub(before)
		if chord.Len() > floatEpsilon {
			segment := chord.Normalize().Mul(e.HorizontalSpeed)
			velocity = lerpVec3(segment, tangential, s)
		}
	}
	velocity[1] = 4*h - 8*h*t

	return position, velocity
}
