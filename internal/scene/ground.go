package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Ground adds one large horizontal triangle at the given height, built on
// immovable particles. It covers the square |x|, |z| < size/4.
func Ground(sim *xpbd.Simulation, size, height float64) *Body {
	body := &Body{}
	u := body.particle(sim, mgl64.Vec3{-size, height, size}, 0)
	v := body.particle(sim, mgl64.Vec3{size, height, size}, 0)
	w := body.particle(sim, mgl64.Vec3{0, height, -size}, 0)
	body.collide(sim, xpbd.NewTriangleCollider(u, w, v))
	return body
}
