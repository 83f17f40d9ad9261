package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/geom"
)

const (
	minDistance = 1.0
	maxDistance = 200.0
	maxPitch    = 1.5
	nearPlane   = 0.05
)

// Camera orbits Target at Distance. Yaw turns about +Y and Pitch tilts the
// view up or down; both are radians.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
	FOV        float64 // vertical field of view in radians
}

func NewCamera() *Camera {
	return &Camera{Target: mgl64.Vec3{0, 3, 0}, Pitch: -0.3, Distance: 16, FOV: math.Pi / 3}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(minDistance, c.Distance/1.2) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(maxDistance, c.Distance*1.2) }

// Frame points the camera at the centre of the box lo..hi and backs off far
// enough to see all of it.
func (c *Camera) Frame(lo, hi mgl64.Vec3) {
	c.Target = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return
	}
	d := radius / math.Tan(c.FOV/2) * 1.2
	c.Distance = mgl64.Clamp(d, minDistance, maxDistance)
}

// Forward is the unit viewing direction.
func (c *Camera) Forward() mgl64.Vec3 {
	return geom.DirectionFromEuler(mgl64.Vec3{c.Pitch, c.Yaw, 0})
}

func (c *Camera) Eye() mgl64.Vec3 {
	return c.Target.Sub(c.Forward().Mul(c.Distance))
}

func (c *Camera) view() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
}

// focal is the pixels per unit of view-space slope on a w x h screen.
func (c *Camera) focal(h int) float64 {
	return float64(h) / 2 / math.Tan(c.FOV/2)
}

// Project maps p to pixel coordinates on a w x h screen. inFront is false
// when p is behind the near plane; on reports whether it lands on screen.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, depth float64, inFront, on bool) {
	v := c.view().Mul4x1(p.Vec4(1))
	depth = -v.Z()
	if depth < nearPlane {
		return 0, 0, depth, false, false
	}
	f := c.focal(h)
	sx := float64(w)/2 + v.X()/depth*f
	sy := float64(h)/2 - v.Y()/depth*f
	x, y = int(math.Floor(sx)), int(math.Floor(sy))
	return x, y, depth, true, x >= 0 && x < w && y >= 0 && y < h
}

// Ray returns the world-space ray through pixel (px, py) of a w x h screen.
// Pass pixel centres (x+0.5) to invert Project.
func (c *Camera) Ray(px, py float64, w, h int) geom.Ray {
	f := c.focal(h)
	local := mgl64.Vec3{(px - float64(w)/2) / f, -(py - float64(h)/2) / f, -1}
	toWorld := c.view().Mat3().Transpose()
	return geom.NewRay(c.Eye(), toWorld.Mul3x1(local))
}

// Render draws every edge between points and a dot at each point.
func Render(cv *Canvas, cam *Camera, points []mgl64.Vec3, edges [][2]int) {
	w, h := cv.Pixels()
	limit := 4 * (w + h)

	type screen struct {
		x, y    int
		visible bool
	}
	proj := make([]screen, len(points))
	for i, p := range points {
		x, y, _, inFront, on := cam.Project(p, w, h)
		near := absInt(x) < limit && absInt(y) < limit
		proj[i] = screen{x, y, inFront && near}
		if on {
			cv.Set(x, y)
		}
	}

	for _, e := range edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(proj) || e[1] >= len(proj) {
			continue
		}
		a, b := proj[e[0]], proj[e[1]]
		if a.visible && b.visible {
			cv.Line(a.x, a.y, b.x, b.y)
		}
	}
}
