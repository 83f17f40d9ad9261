package xpbd

import "github.com/san-kum/xpbdsim/internal/geom"

// TriangleCollider turns three particles into a collision surface. It has no
// state of its own: the triangle follows the particles.
type TriangleCollider struct {
	particles [3]*Particle
}

func NewTriangleCollider(a, b, c *Particle) *TriangleCollider {
	return &TriangleCollider{particles: [3]*Particle{a, b, c}}
}

func (c *TriangleCollider) Particles() []*Particle { return c.particles[:] }

// Triangle is the collider's current shape.
func (c *TriangleCollider) Triangle() geom.Triangle {
	return geom.Triangle{
		A: c.particles[0].Position,
		B: c.particles[1].Position,
		C: c.particles[2].Position,
	}
}

// References reports whether p is one of the collider's corners.
func (c *TriangleCollider) References(p *Particle) bool {
	return c.particles[0] == p || c.particles[1] == p || c.particles[2] == p
}
