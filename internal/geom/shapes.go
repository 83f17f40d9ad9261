package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// surfaceTolerance bounds |P - C|^2 - R^2 for a point to count as on a sphere.
const surfaceTolerance = 1e-9

// Sphere is the set |P - Center|^2 = Radius^2.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Intersects reports whether p lies on the sphere's surface.
func (s Sphere) Intersects(p mgl64.Vec3) bool {
	d := p.Sub(s.Center)
	return math.Abs(d.Dot(d)-s.Radius*s.Radius) < surfaceTolerance
}

// Triangle with vertices A, B, C.
type Triangle struct {
	A, B, C mgl64.Vec3
}

func (t Triangle) EdgeAB() mgl64.Vec3 { return t.B.Sub(t.A) }
func (t Triangle) EdgeAC() mgl64.Vec3 { return t.C.Sub(t.A) }

// Normal is normalize(AC x AB). Degenerate triangles return the zero vector.
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.EdgeAC().Cross(t.EdgeAB())
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{}
}

func (t Triangle) Centroid() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

func (t Triangle) Area() float64 {
	return 0.5 * t.EdgeAB().Cross(t.EdgeAC()).Len()
}
