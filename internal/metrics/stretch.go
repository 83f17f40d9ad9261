package metrics

import (
	"math"

	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// MaxStretch is the largest relative length error |l - rest| / rest seen on
// any distance constraint with a positive rest length.
type MaxStretch struct {
	name string
	max  float64
}

func NewMaxStretch() *MaxStretch {
	return &MaxStretch{name: "max_stretch"}
}

func (m *MaxStretch) Name() string { return m.name }

func (m *MaxStretch) Observe(w *xpbd.Simulation, t float64) {
	for _, c := range w.Constraints {
		d, ok := c.(*xpbd.DistanceConstraint)
		if !ok || d.RestDistance <= 0 {
			continue
		}
		ps := d.Particles()
		l := ps[1].Position.Sub(ps[0].Position).Len()
		m.max = math.Max(m.max, math.Abs(l-d.RestDistance)/d.RestDistance)
	}
}

func (m *MaxStretch) Value() float64 { return m.max }

func (m *MaxStretch) Reset() { m.max = 0 }
