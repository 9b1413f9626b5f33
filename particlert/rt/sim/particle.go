package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Particle is one simulated sprite. It is alive exactly while
// Lifetime < MaxLife; a zero Particle is dead.
type Particle struct {
	Position mgl32.Vec4 // world space, W is always 1
	Velocity mgl32.Vec3 // units per second
	Color    mgl32.Vec4
	Size     float32 // half-extent of the camera-facing quad
	Lifetime float32 // seconds since emission
	MaxLife  float32
}

func (p *Particle) Alive() bool {
	return p.Lifetime < p.MaxLife
}

// Pool is a fixed-capacity arena of particle slots. Dead slots are reused in
// place; nothing is ever freed.
type Pool struct {
	slots  []Particle
	cursor int
}

func NewPool(capacity int) *Pool {
	return &Pool{slots: make([]Particle, capacity)}
}

func (p *Pool) Capacity() int {
	return len(p.slots)
}

func (p *Pool) Slot(i int) *Particle {
	return &p.slots[i]
}

// claim returns the next dead slot at or after the cursor, wrapping at the
// end of the pool. Every visited slot costs one unit of budget; once the
// budget is spent claim reports false.
func (p *Pool) claim(budget *int) (*Particle, bool) {
	for *budget > 0 {
		i := p.cursor
		p.cursor++
		if p.cursor == len(p.slots) {
			p.cursor = 0
		}
		*budget--
		if !p.slots[i].Alive() {
			return &p.slots[i], true
		}
	}
	return nil, false
}

// Live calls fn for every alive slot in slot order.
func (p *Pool) Live(fn func(i int, particle *Particle)) {
	for i := range p.slots {
		if p.slots[i].Alive() {
			fn(i, &p.slots[i])
		}
	}
}
