package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Body is the set of simulation objects one builder created.
type Body struct {
	Particles   []*xpbd.Particle
	Constraints []xpbd.Constraint
	Colliders   []*xpbd.TriangleCollider
}

func (b *Body) particle(sim *xpbd.Simulation, position mgl64.Vec3, inverseMass float64) *xpbd.Particle {
	p := xpbd.NewParticle(position, mgl64.Vec3{}, inverseMass, inverseMass != 0)
	b.Particles = append(b.Particles, p)
	sim.AddParticle(p)
	return p
}

func (b *Body) constrain(sim *xpbd.Simulation, c xpbd.Constraint) {
	b.Constraints = append(b.Constraints, c)
	sim.AddConstraint(c)
}

func (b *Body) collide(sim *xpbd.Simulation, c *xpbd.TriangleCollider) {
	b.Colliders = append(b.Colliders, c)
	sim.AddCollider(c)
}

type edge [2]int

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// uniqueEdges lists every triangle edge once, in first-seen order.
func uniqueEdges(triangles [][3]int) []edge {
	seen := make(map[edge]bool)
	var edges []edge
	for _, t := range triangles {
		for i := 0; i < 3; i++ {
			e := newEdge(t[i], t[(i+1)%3])
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}

// hinge is an interior edge AB with the opposite corners C and D of the two
// triangles sharing it.
type hinge struct {
	a, b, c, d int
}

func hinges(triangles [][3]int) []hinge {
	var order []edge
	opposite := make(map[edge][]int)
	for _, t := range triangles {
		for i := 0; i < 3; i++ {
			e := newEdge(t[i], t[(i+1)%3])
			if _, ok := opposite[e]; !ok {
				order = append(order, e)
			}
			opposite[e] = append(opposite[e], t[(i+2)%3])
		}
	}

	var out []hinge
	for _, e := range order {
		if o := opposite[e]; len(o) == 2 {
			out = append(out, hinge{e[0], e[1], o[0], o[1]})
		}
	}
	return out
}
