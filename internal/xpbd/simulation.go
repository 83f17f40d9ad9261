package xpbd

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/geom"
)

const (
	DefaultSubsteps    = 10
	DefaultIterations  = 4
	DefaultDamping     = 0.999
	DefaultFriction    = 0.8
	DefaultRestitution = 0.2
	DefaultGravity     = 9.81
)

// Config holds the solver tunables of one Simulation.
type Config struct {
	Substeps    int     // substeps per Step
	Iterations  int     // projection passes per substep
	Damping     float64 // velocity retained per substep, in [0, 1]
	Friction    float64 // tangential contact velocity retained, in [0, 1]
	Restitution float64 // normal contact velocity bounced back, in [0, 1]
	Gravity     float64 // downward (-Y) acceleration
}

func DefaultConfig() Config {
	return Config{
		Substeps:    DefaultSubsteps,
		Iterations:  DefaultIterations,
		Damping:     DefaultDamping,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
		Gravity:     DefaultGravity,
	}
}

func (c Config) Validate() error {
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrInvalidConfig, c.Substeps)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidConfig, c.Iterations)
	}
	unit := []struct {
		name  string
		value float64
	}{
		{"damping", c.Damping},
		{"friction", c.Friction},
		{"restitution", c.Restitution},
	}
	for _, u := range unit {
		if !(u.value >= 0 && u.value <= 1) {
			return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidConfig, u.name, u.value)
		}
	}
	if !isFinite(c.Gravity) {
		return fmt.Errorf("%w: gravity must be finite, got %g", ErrInvalidConfig, c.Gravity)
	}
	return nil
}

// StepStats counts the work done by the last call to Step.
type StepStats struct {
	Substeps       int
	Projections    int // corrections applied
	Skipped        int // projections that were satisfied or degenerate
	Contacts       int // collision constraints generated
	ActiveContacts int // contacts that had to push their particle
}

// Simulation owns a set of particles, persistent constraints and colliders.
// The slices are exported so hosts can edit them between steps.
type Simulation struct {
	Config      Config
	Particles   []*Particle
	Constraints []Constraint
	Colliders   []*TriangleCollider

	contacts []*CollisionConstraint
	stats    StepStats
}

func NewSimulation(cfg Config) *Simulation {
	return &Simulation{Config: cfg}
}

func (s *Simulation) AddParticle(ps ...*Particle) {
	s.Particles = append(s.Particles, ps...)
}

func (s *Simulation) AddConstraint(cs ...Constraint) {
	s.Constraints = append(s.Constraints, cs...)
}

func (s *Simulation) AddCollider(cs ...*TriangleCollider) {
	s.Colliders = append(s.Colliders, cs...)
}

// RemoveConstraint removes the first occurrence of c and reports whether it
// was present.
func (s *Simulation) RemoveConstraint(c Constraint) bool {
	for i, it := range s.Constraints {
		if it == c {
			s.Constraints = append(s.Constraints[:i], s.Constraints[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Simulation) RemoveCollider(c *TriangleCollider) bool {
	for i, it := range s.Colliders {
		if it == c {
			s.Colliders = append(s.Colliders[:i], s.Colliders[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveParticle removes p. Constraints and colliders referencing p must be
// removed first.
func (s *Simulation) RemoveParticle(p *Particle) error {
	for _, c := range s.Constraints {
		if c.Core().References(p) {
			return fmt.Errorf("%w: by a constraint", ErrParticleReferenced)
		}
	}
	for _, c := range s.Colliders {
		if c.References(p) {
			return fmt.Errorf("%w: by a collider", ErrParticleReferenced)
		}
	}
	for i, it := range s.Particles {
		if it == p {
			s.Particles = append(s.Particles[:i], s.Particles[i+1:]...)
			return nil
		}
	}
	return ErrUnknownParticle
}

// Contacts are the collision constraints of the last substep. The slice is
// reused by the next Step.
func (s *Simulation) Contacts() []*CollisionConstraint { return s.contacts }

// Stats describes the last Step.
func (s *Simulation) Stats() StepStats { return s.stats }

// Step advances the simulation by timestep, split into Config.Substeps
// substeps. A non-positive timestep or substep count does nothing.
func (s *Simulation) Step(timestep float64) {
	s.stats = StepStats{}
	if !(timestep > 0) || s.Config.Substeps < 1 {
		return
	}

	h := timestep / float64(s.Config.Substeps)
	for i := 0; i < s.Config.Substeps; i++ {
		s.substep(h)
	}
}

func (s *Simulation) substep(h float64) {
	s.integrate(h)
	s.detectCollisions()
	s.solve(h)
	s.deriveVelocities(h)

	for _, c := range s.Constraints {
		Dampen(c, h)
	}

	s.respondToContacts()
	s.stats.Substeps++
}

func (s *Simulation) integrate(h float64) {
	gravity := mgl64.Vec3{0, -s.Config.Gravity * h, 0}
	for _, p := range s.Particles {
		p.PreviousPosition = p.Position
		if p.InverseMass == 0 {
			continue
		}
		if p.HasGravity {
			p.Velocity = p.Velocity.Add(gravity)
		}
		p.Position = p.Position.Add(p.Velocity.Mul(h))
	}
}

// detectCollisions sweeps every movable particle's substep displacement
// against every collider and records one contact per triangle crossed.
func (s *Simulation) detectCollisions() {
	s.contacts = s.contacts[:0]
	if len(s.Colliders) == 0 {
		return
	}

	for _, p := range s.Particles {
		if p.InverseMass == 0 {
			continue
		}

		displacement := p.Position.Sub(p.PreviousPosition)
		length := displacement.Len()
		if length < coincidentEpsilon {
			continue
		}
		ray := geom.Ray{Origin: p.PreviousPosition, Direction: displacement.Mul(1 / length)}

		for _, c := range s.Colliders {
			if c.References(p) {
				continue
			}

			tri := c.Triangle()
			t, hit := ray.OverlapsTriangle(tri)
			if !hit || t > length {
				continue
			}

			normal := tri.Normal()
			if normal.Dot(ray.Direction) < 0 {
				normal = normal.Mul(-1)
			}
			s.contacts = append(s.contacts, NewCollisionConstraint(p, ray.Point(t), normal))
		}
	}
	s.stats.Contacts += len(s.contacts)
}

// solve runs Gauss-Seidel passes: persistent constraints first, then contacts.
func (s *Simulation) solve(h float64) {
	for i := 0; i < s.Config.Iterations; i++ {
		for _, c := range s.Constraints {
			s.count(Project(c, h))
		}
		for _, c := range s.contacts {
			if Project(c, h) {
				c.active = true
				s.stats.Projections++
			} else {
				s.stats.Skipped++
			}
		}
	}
}

func (s *Simulation) count(applied bool) {
	if applied {
		s.stats.Projections++
	} else {
		s.stats.Skipped++
	}
}

func (s *Simulation) deriveVelocities(h float64) {
	for _, p := range s.Particles {
		if p.InverseMass == 0 {
			continue
		}
		p.Velocity = p.Position.Sub(p.PreviousPosition).Mul(1 / h).Mul(s.Config.Damping)
	}
}

// respondToContacts reflects the normal velocity of active contacts scaled by
// Restitution and keeps Friction of the tangential velocity.
func (s *Simulation) respondToContacts() {
	for _, c := range s.contacts {
		if !c.active {
			continue
		}
		s.stats.ActiveContacts++

		p := c.Particle()
		if p.InverseMass == 0 {
			continue
		}

		normal, tangent := Along(p.Velocity, c.Normal)
		if p.Velocity.Dot(c.Normal) > 0 {
			normal = normal.Mul(-s.Config.Restitution)
		}
		p.Velocity = normal.Add(tangent.Mul(s.Config.Friction))
	}
}

// Energy returns the kinetic and gravitational potential energy of the
// movable particles. Potential energy is measured from y = 0.
func (s *Simulation) Energy() (kinetic, potential float64) {
	for _, p := range s.Particles {
		if p.InverseMass == 0 {
			continue
		}
		m := 1 / p.InverseMass
		kinetic += 0.5 * m * p.Velocity.LenSqr()
		if p.HasGravity {
			potential += m * s.Config.Gravity * p.Position.Y()
		}
	}
	return kinetic, potential
}

// Finite reports whether every particle position and velocity is finite.
func (s *Simulation) Finite() bool {
	for _, p := range s.Particles {
		if !IsFinite(p.Position) || !IsFinite(p.Velocity) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned box around all particle positions.
func (s *Simulation) Bounds() (lo, hi mgl64.Vec3) {
	if len(s.Particles) == 0 {
		return lo, hi
	}
	inf := math.Inf(1)
	lo = mgl64.Vec3{inf, inf, inf}
	hi = mgl64.Vec3{-inf, -inf, -inf}
	for _, p := range s.Particles {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p.Position[i])
			hi[i] = math.Max(hi[i], p.Position[i])
		}
	}
	return lo, hi
}
