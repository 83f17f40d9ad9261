package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Cloth builds a Width x Height particle grid centred on x = 0. A hanging
// cloth spans the XY plane with row 0 at the top; a horizontal one lies in
// the XZ plane. Every quad is split along one diagonal, each triangle edge
// becomes a distance constraint and every interior edge a bend constraint.
func Cloth(sim *xpbd.Simulation, cfg config.ClothConfig) *Body {
	body := &Body{}
	w, h, s := cfg.Width, cfg.Height, cfg.Spacing
	x0 := -float64(w-1) * s / 2

	index := func(i, j int) int { return j*w + i }
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			pos := mgl64.Vec3{x0 + float64(i)*s, cfg.Elevation - float64(j)*s, 0}
			if cfg.Horizontal {
				pos = mgl64.Vec3{x0 + float64(i)*s, cfg.Elevation, float64(j) * s}
			}
			inverseMass := 1.0
			if j == 0 && cfg.PinTop {
				inverseMass = 0
			}
			body.particle(sim, pos, inverseMass)
		}
	}

	var triangles [][3]int
	for j := 0; j+1 < h; j++ {
		for i := 0; i+1 < w; i++ {
			a, b := index(i, j), index(i+1, j)
			c, d := index(i, j+1), index(i+1, j+1)
			triangles = append(triangles, [3]int{a, b, c}, [3]int{b, d, c})
		}
	}

	ps := body.Particles
	for _, e := range uniqueEdges(triangles) {
		body.constrain(sim, xpbd.NewRestDistanceConstraint(ps[e[0]], ps[e[1]], cfg.Compliance))
	}
	for _, hg := range hinges(triangles) {
		body.constrain(sim, xpbd.NewRestBendConstraint(ps[hg.a], ps[hg.b], ps[hg.c], ps[hg.d], cfg.BendCompliance))
	}
	return body
}
