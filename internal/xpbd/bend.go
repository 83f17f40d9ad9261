package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/geom"
)

// flatEpsilon bounds sin(angle) below which the dihedral gradient is singular.
const flatEpsilon = 1e-9

// DihedralAngle is the angle between the normals of triangles ACB and ABD,
// which share the edge AB. Coplanar, unfolded triangles give 0.
func DihedralAngle(a, b, c, d mgl64.Vec3) float64 {
	n1 := geom.Triangle{A: a, B: c, C: b}.Normal()
	n2 := geom.Triangle{A: a, B: b, C: d}.Normal()
	return math.Atan2(n1.Cross(n2).Len(), n1.Dot(n2))
}

// BendConstraint holds the dihedral angle between triangles ACB and ABD at
// RestAngle, using the exact gradient of the angle.
type BendConstraint struct {
	Base
	RestAngle float64
}

func NewBendConstraint(a, b, c, d *Particle, restAngle, compliance float64) *BendConstraint {
	return &BendConstraint{
		Base:      NewBase([]*Particle{a, b, c, d}, compliance, Equal),
		RestAngle: restAngle,
	}
}

// NewRestBendConstraint uses the current dihedral angle as the rest angle.
func NewRestBendConstraint(a, b, c, d *Particle, compliance float64) *BendConstraint {
	angle := DihedralAngle(a.Position, b.Position, c.Position, d.Position)
	return NewBendConstraint(a, b, c, d, angle, compliance)
}

func (c *BendConstraint) Evaluate(gradient []mgl64.Vec3) (float64, bool) {
	a := c.particles[0].Position
	p2 := c.particles[1].Position.Sub(a)
	p3 := c.particles[2].Position.Sub(a)
	p4 := c.particles[3].Position.Sub(a)

	c23 := p2.Cross(p3)
	c24 := p2.Cross(p4)
	l23, l24 := c23.Len(), c24.Len()
	if l23 < coincidentEpsilon || l24 < coincidentEpsilon {
		return 0, false
	}

	n1 := c23.Mul(1 / l23)
	n2 := c24.Mul(1 / l24)
	d := mgl64.Clamp(n1.Dot(n2), -1, 1)

	// n2 here is the reverse of ABD's normal, so the dihedral angle is acos(-d).
	err := math.Acos(-d) - c.RestAngle

	s := math.Sqrt(1 - d*d)
	if s < flatEpsilon {
		return err, false
	}

	// Gradients of d with respect to each vertex.
	q3 := p2.Cross(n2).Add(n1.Cross(p2).Mul(d)).Mul(1 / l23)
	q4 := p2.Cross(n1).Add(n2.Cross(p2).Mul(d)).Mul(1 / l24)
	q2 := p3.Cross(n2).Add(n1.Cross(p3).Mul(d)).Mul(-1 / l23).
		Sub(p4.Cross(n1).Add(n2.Cross(p4).Mul(d)).Mul(1 / l24))
	q1 := q2.Add(q3).Add(q4).Mul(-1)

	k := -1 / s
	gradient[0] = q1.Mul(k)
	gradient[1] = q2.Mul(k)
	gradient[2] = q3.Mul(k)
	gradient[3] = q4.Mul(k)
	return err, true
}

// DihedralConstraint holds the same angle as BendConstraint with a cheaper
// approximate gradient: C and D slide along CD in opposite senses while A and
// B move together along AB x CD, rotating the two triangles about AB. Closing
// the wings or pushing the edge away from them both increase the angle.
type DihedralConstraint struct {
	Base
	RestAngle float64
}

func NewDihedralConstraint(a, b, c, d *Particle, restAngle, compliance float64) *DihedralConstraint {
	return &DihedralConstraint{
		Base:      NewBase([]*Particle{a, b, c, d}, compliance, Equal),
		RestAngle: restAngle,
	}
}

func (c *DihedralConstraint) Evaluate(gradient []mgl64.Vec3) (float64, bool) {
	a := c.particles[0].Position
	b := c.particles[1].Position
	pc := c.particles[2].Position
	pd := c.particles[3].Position

	source := geom.Triangle{A: a, B: pc, C: b}.Normal()
	target := geom.Triangle{A: a, B: b, C: pd}.Normal()
	if source == (mgl64.Vec3{}) || target == (mgl64.Vec3{}) {
		return 0, false
	}

	angle := math.Atan2(source.Cross(target).Len(), source.Dot(target))
	ab := b.Sub(a)
	cd := pd.Sub(pc)

	hinge := ab.Cross(cd)
	away := a.Add(b).Sub(pc).Sub(pd)
	if hinge.Dot(away) < 0 {
		hinge = hinge.Mul(-1)
	}

	gradient[0] = hinge
	gradient[1] = hinge
	gradient[2] = cd
	gradient[3] = cd.Mul(-1)
	return angle - c.RestAngle, true
}
