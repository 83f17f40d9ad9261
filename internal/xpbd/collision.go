package xpbd

import "github.com/go-gl/mathgl/mgl64"

// CollisionConstraint is a rigid one-sided contact of one particle with a
// plane through Contact. Normal is unit length and points into the surface,
// along the motion that caused the contact; the particle is pushed back
// while it sits on the Normal side.
type CollisionConstraint struct {
	Base
	Contact mgl64.Vec3
	Normal  mgl64.Vec3

	active bool
}

func NewCollisionConstraint(p *Particle, contact, normal mgl64.Vec3) *CollisionConstraint {
	return &CollisionConstraint{
		Base:    NewBase([]*Particle{p}, 0, GreaterEqual),
		Contact: contact,
		Normal:  normal,
	}
}

// Particle is the colliding particle.
func (c *CollisionConstraint) Particle() *Particle { return c.particles[0] }

// Active reports whether the contact had to push its particle at least once
// during the substep's solve.
func (c *CollisionConstraint) Active() bool { return c.active }

func (c *CollisionConstraint) Evaluate(gradient []mgl64.Vec3) (float64, bool) {
	inward := c.Normal.Mul(-1)
	gradient[0] = inward
	return c.particles[0].Position.Sub(c.Contact).Dot(inward), true
}
