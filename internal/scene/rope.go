package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Rope lays cfg.Segments+1 particles along +X from origin, joined by
// distance constraints. The first particle is immovable when cfg.Pinned.
func Rope(sim *xpbd.Simulation, origin mgl64.Vec3, cfg config.RopeConfig) *Body {
	body := &Body{}
	step := mgl64.Vec3{cfg.Spacing, 0, 0}

	var prev *xpbd.Particle
	for i := 0; i <= cfg.Segments; i++ {
		w := 1.0
		if i == 0 && cfg.Pinned {
			w = 0
		}
		p := body.particle(sim, origin.Add(step.Mul(float64(i))), w)
		if prev != nil {
			link := xpbd.NewDistanceConstraint(prev, p, cfg.Spacing, cfg.Compliance)
			link.Damping = cfg.Damping
			body.constrain(sim, link)
		}
		prev = p
	}
	return body
}
