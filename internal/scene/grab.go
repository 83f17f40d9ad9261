package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/geom"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

const (
	DefaultGrabRadius     = 0.15
	DefaultGrabCompliance = 0.1
)

// Grabber pulls one particle toward a point on a pointer ray. The anchor is
// an immovable particle owned by the Grabber and never added to the
// simulation's particle list.
type Grabber struct {
	Radius     float64
	Compliance float64

	sim    *xpbd.Simulation
	anchor *xpbd.Particle
	link   *xpbd.DistanceConstraint
	depth  float64
}

func NewGrabber(sim *xpbd.Simulation) *Grabber {
	return &Grabber{
		Radius:     DefaultGrabRadius,
		Compliance: DefaultGrabCompliance,
		sim:        sim,
		anchor:     xpbd.NewParticle(mgl64.Vec3{}, mgl64.Vec3{}, 0, false),
	}
}

// Begin picks the movable particle nearest along ray whose pick sphere the
// ray enters and attaches it to the anchor. It reports whether a particle
// was grabbed.
func (g *Grabber) Begin(ray geom.Ray) bool {
	g.End()

	var target *xpbd.Particle
	nearest := math.Inf(1)
	for _, p := range g.sim.Particles {
		if p.Immovable() {
			continue
		}
		t, hit := ray.OverlapsSphere(geom.Sphere{Center: p.Position, Radius: g.Radius})
		if hit && t < nearest {
			target, nearest = p, t
		}
	}
	if target == nil {
		return false
	}

	g.depth = nearest
	g.place(ray)
	g.link = xpbd.NewDistanceConstraint(g.anchor, target, 0, g.Compliance)
	g.sim.AddConstraint(g.link)
	return true
}

// Move drags the anchor along the new ray, keeping the pick depth.
func (g *Grabber) Move(ray geom.Ray) {
	if g.link == nil {
		return
	}
	g.place(ray)
}

// End releases the grabbed particle, if any.
func (g *Grabber) End() {
	if g.link == nil {
		return
	}
	g.sim.RemoveConstraint(g.link)
	g.link = nil
}

func (g *Grabber) place(ray geom.Ray) {
	g.anchor.Position = ray.Point(g.depth)
	g.anchor.PreviousPosition = g.anchor.Position
}

// Grabbed returns the held particle, or nil.
func (g *Grabber) Grabbed() *xpbd.Particle {
	if g.link == nil {
		return nil
	}
	return g.link.Particles()[1]
}

func (g *Grabber) Anchor() mgl64.Vec3 { return g.anchor.Position }
