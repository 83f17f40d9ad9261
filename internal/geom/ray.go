package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ParallelEpsilon rejects rays (near-)parallel to a triangle's plane.
	ParallelEpsilon = 0.00005
	// GrazingEpsilon lets hits slightly behind the ray origin count, so a
	// particle resting on a surface keeps generating contacts.
	GrazingEpsilon = 0.005
)

// Ray is the half-line P = Origin + t*Direction. Direction is kept unit
// length so reported distances are Euclidean.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// NewRay normalises direction. A zero direction yields a zero Direction and
// a ray that never hits anything.
func NewRay(origin, direction mgl64.Vec3) Ray {
	if l := direction.Len(); l > 0 {
		direction = direction.Mul(1 / l)
	}
	return Ray{Origin: origin, Direction: direction}
}

// Point returns the point at distance t along the ray.
func (r Ray) Point(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// OverlapsSphere solves |O + tD - C|^2 = R^2 for t and reports the nearest
// root ahead of the origin: the entry point, or the exit point when the
// origin is inside the sphere. It does not return the larger root, so a ray
// starting outside the sphere hits its near surface.
func (r Ray) OverlapsSphere(s Sphere) (float64, bool) {
	// t^2 + 2D.(O - C)t + |O - C|^2 - R^2 = 0
	oc := r.Origin.Sub(s.Center)
	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := 2 * r.Direction.Dot(oc)
	c := oc.Dot(oc) - s.Radius*s.Radius
	d := b*b - 4*a*c

	if d < 0 {
		return 0, false
	}

	if d == 0 {
		t := -b / (2 * a)
		return t, t > 0
	}

	d = math.Sqrt(d)
	t0 := (-b + d) / (2 * a)
	t1 := (-b - d) / (2 * a)

	if t1 > 0 {
		return t1, true
	}
	return t0, t0 > 0
}

// OverlapsTriangle is the Moller-Trumbore test. It solves
// O + tD = (1 - u - v)A + uB + vC for (t, u, v) with Cramer's rule.
func (r Ray) OverlapsTriangle(tri Triangle) (float64, bool) {
	edge0 := tri.EdgeAB()
	edge1 := tri.EdgeAC()

	pvec := r.Direction.Cross(edge1)
	det := edge0.Dot(pvec)
	if det > -ParallelEpsilon && det < ParallelEpsilon {
		return 0, false
	}

	idet := 1 / det
	tvec := r.Origin.Sub(tri.A)
	u := tvec.Dot(pvec) * idet
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(edge0)
	v := r.Direction.Dot(qvec) * idet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge1.Dot(qvec) * idet
	return t, t > -GrazingEpsilon
}

// DirectionFromEuler returns the forward (-Z) axis rotated by the Euler
// angles in rotation, applied X then Y then Z.
func DirectionFromEuler(rotation mgl64.Vec3) mgl64.Vec3 {
	m := mgl64.Rotate3DZ(rotation.Z()).
		Mul3(mgl64.Rotate3DY(rotation.Y())).
		Mul3(mgl64.Rotate3DX(rotation.X()))
	return m.Mul3x1(mgl64.Vec3{0, 0, -1}).Normalize()
}
