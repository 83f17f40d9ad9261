package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Particle is a point mass. It is shared by pointer between the simulation,
// the constraints it takes part in and any collider built on it.
type Particle struct {
	Position         mgl64.Vec3
	PreviousPosition mgl64.Vec3 // position at the start of the current substep
	Velocity         mgl64.Vec3
	InverseMass      float64 // 0 is immovable, never negative
	HasGravity       bool
}

// NewParticle returns a particle at rest history: PreviousPosition equals
// position. Negative inverse masses are clamped to 0.
func NewParticle(position, velocity mgl64.Vec3, inverseMass float64, hasGravity bool) *Particle {
	return &Particle{
		Position:         position,
		PreviousPosition: position,
		Velocity:         velocity,
		InverseMass:      math.Max(inverseMass, 0),
		HasGravity:       hasGravity,
	}
}

// Mass is 1/InverseMass, or +Inf for an immovable particle.
func (p *Particle) Mass() float64 {
	if p.InverseMass == 0 {
		return math.Inf(1)
	}
	return 1 / p.InverseMass
}

// Immovable reports whether the particle has infinite mass.
func (p *Particle) Immovable() bool { return p.InverseMass == 0 }
