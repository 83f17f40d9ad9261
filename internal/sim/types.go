package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Frame is every particle position flattened as x0, y0, z0, x1, ...
type Frame []float64

func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

func (f Frame) Len() int { return len(f) / 3 }

func (f Frame) At(i int) mgl64.Vec3 {
	return mgl64.Vec3{f[3*i], f[3*i+1], f[3*i+2]}
}

func (f Frame) IsValid() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Capture writes the particle positions of s into dst, growing it as
// needed, and returns it.
func Capture(s *xpbd.Simulation, dst Frame) Frame {
	n := 3 * len(s.Particles)
	if cap(dst) < n {
		dst = make(Frame, n)
	}
	dst = dst[:n]
	for i, p := range s.Particles {
		dst[3*i], dst[3*i+1], dst[3*i+2] = p.Position[0], p.Position[1], p.Position[2]
	}
	return dst
}

// Edges lists the particle index pairs of every distance constraint
// followed by the outline of every collider, for drawing. Pairs touching a
// particle outside s are skipped.
func Edges(s *xpbd.Simulation) [][2]int {
	index := make(map[*xpbd.Particle]int, len(s.Particles))
	for i, p := range s.Particles {
		index[p] = i
	}

	var edges [][2]int
	for _, c := range s.Constraints {
		d, ok := c.(*xpbd.DistanceConstraint)
		if !ok {
			continue
		}
		ps := d.Particles()
		a, okA := index[ps[0]]
		b, okB := index[ps[1]]
		if okA && okB {
			edges = append(edges, [2]int{a, b})
		}
	}
	for _, c := range s.Colliders {
		ps := c.Particles()
		for k := range ps {
			a, okA := index[ps[k]]
			b, okB := index[ps[(k+1)%len(ps)]]
			if okA && okB {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	return edges
}

type Metric interface {
	Name() string
	Observe(s *xpbd.Simulation, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *xpbd.Simulation, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *xpbd.Simulation, t float64)

func (f ObserverFunc) OnStep(s *xpbd.Simulation, t float64) { f(s, t) }

type Config struct {
	Dt       float64
	Duration float64
	// Record keeps one Frame per tick in the Result.
	Record bool
	// ValidateState stops the run on the first non-finite particle.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60,
		Duration:      10,
		Record:        true,
		ValidateState: true,
	}
}

type Result struct {
	Frames      []Frame
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	EnergyDrift float64
	Totals      xpbd.StepStats
	Errors      []error
}

type SimError struct {
	Step    int
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
