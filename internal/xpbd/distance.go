package xpbd

import "github.com/go-gl/mathgl/mgl64"

// coincidentEpsilon is the separation below which two points have no
// well-defined direction.
const coincidentEpsilon = 1e-12

// DistanceConstraint keeps two particles RestDistance apart.
//
// The error is currentDistance - RestDistance: positive when stretched,
// negative when compressed.
type DistanceConstraint struct {
	Base
	RestDistance float64
}

func NewDistanceConstraint(a, b *Particle, restDistance, compliance float64) *DistanceConstraint {
	return &DistanceConstraint{
		Base:         NewBase([]*Particle{a, b}, compliance, Equal),
		RestDistance: restDistance,
	}
}

// NewRestDistanceConstraint uses the particles' current separation as the
// rest distance.
func NewRestDistanceConstraint(a, b *Particle, compliance float64) *DistanceConstraint {
	return NewDistanceConstraint(a, b, b.Position.Sub(a.Position).Len(), compliance)
}

func (c *DistanceConstraint) Evaluate(gradient []mgl64.Vec3) (float64, bool) {
	d := c.particles[1].Position.Sub(c.particles[0].Position)
	l := d.Len()
	err := l - c.RestDistance
	if l < coincidentEpsilon {
		return err, false
	}

	n := d.Mul(1 / l)
	gradient[0] = n.Mul(-1)
	gradient[1] = n
	return err, true
}
