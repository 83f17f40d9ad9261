package xpbd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Equality says which violations a constraint resists.
type Equality int

const (
	// Equal resists both directions: drives the error to 0.
	Equal Equality = 0
	// GreaterEqual is satisfied while the error is >= 0.
	GreaterEqual Equality = 1
	// LessEqual is satisfied while the error is <= 0.
	LessEqual Equality = -1
)

func (e Equality) String() string {
	switch e {
	case Equal:
		return "=="
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	default:
		return fmt.Sprintf("Equality(%d)", int(e))
	}
}

// degenerateDenominator is the smallest projection denominator still solved.
const degenerateDenominator = 1e-12

// Constraint is one scalar condition over a fixed list of particles.
//
// Evaluate recomputes the error from the current particle positions and
// writes one gradient vector per participating particle into gradient. It
// returns false when the configuration is degenerate (coincident points,
// collapsed triangles) and no correction should be attempted.
type Constraint interface {
	Core() *Base
	Evaluate(gradient []mgl64.Vec3) (float64, bool)
}

// Base holds the state every constraint variant shares. Variants embed it.
type Base struct {
	// Compliance is the inverse stiffness. 0 is rigid.
	Compliance float64
	// Damping in [0, 1] pulls participant velocities toward their mean.
	Damping float64
	// Equality selects two-sided or one-sided behaviour.
	Equality Equality

	particles []*Particle
	err       float64
	gradient  []mgl64.Vec3
}

// NewBase copies particles so later edits by the caller do not leak in.
func NewBase(particles []*Particle, compliance float64, equality Equality) Base {
	ps := make([]*Particle, len(particles))
	copy(ps, particles)
	return Base{
		Compliance: compliance,
		Equality:   equality,
		particles:  ps,
		gradient:   make([]mgl64.Vec3, len(ps)),
	}
}

// Core exposes the shared state to Project and Dampen.
func (b *Base) Core() *Base { return b }

// Particles returns the participating particles in constraint order.
func (b *Base) Particles() []*Particle { return b.particles }

// SetParticle swaps the i-th participant, as the grab tool does when it
// re-targets its constraint.
func (b *Base) SetParticle(i int, p *Particle) { b.particles[i] = p }

// References reports whether p takes part in the constraint.
func (b *Base) References(p *Particle) bool {
	for _, q := range b.particles {
		if q == p {
			return true
		}
	}
	return false
}

// Error is the value computed by the last projection.
func (b *Base) Error() float64 { return b.err }

// Gradient is the per-particle gradient computed by the last projection.
func (b *Base) Gradient() []mgl64.Vec3 { return b.gradient }

// Satisfied reports whether err needs no correction under b's equality kind.
func (b *Base) Satisfied(err float64) bool {
	if b.Equality == Equal {
		return err == 0
	}
	return float64(b.Equality)*err >= 0
}

// Project moves the participants of c toward satisfying it:
//
//	lambda = -C / (compliance/h^2 + sum_i w_i |grad_i|^2)
//	x_i   += lambda * w_i * grad_i
//
// It reports whether a correction was applied. Degenerate geometry, an
// all-immovable participant set and non-finite results are skipped.
func Project(c Constraint, h float64) bool {
	b := c.Core()

	err, ok := c.Evaluate(b.gradient)
	b.err = err
	if !ok || b.Satisfied(err) {
		return false
	}

	denominator := b.Compliance / (h * h)
	for i, p := range b.particles {
		denominator += p.InverseMass * b.gradient[i].LenSqr()
	}
	if !(denominator >= degenerateDenominator) {
		return false
	}

	lambda := -err / denominator
	if !isFinite(lambda) {
		return false
	}

	for i, p := range b.particles {
		if p.InverseMass == 0 {
			continue
		}
		p.Position = p.Position.Add(b.gradient[i].Mul(lambda * p.InverseMass))
	}
	return true
}

// Dampen moves each movable participant's velocity toward the unweighted
// mean velocity of all participants by Damping*h.
func Dampen(c Constraint, h float64) {
	b := c.Core()
	if b.Damping == 0 || len(b.particles) == 0 {
		return
	}

	var mean mgl64.Vec3
	for _, p := range b.particles {
		mean = mean.Add(p.Velocity)
	}
	mean = mean.Mul(1 / float64(len(b.particles)))

	k := b.Damping * h
	for _, p := range b.particles {
		if p.InverseMass == 0 {
			continue
		}
		p.Velocity = p.Velocity.Add(mean.Sub(p.Velocity).Mul(k))
	}
}
