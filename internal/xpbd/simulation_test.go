package xpbd_test

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xpbdsim/internal/xpbd"
)

const frame = 1.0 / 60

func still(x, y, z float64) *xpbd.Particle {
	return xpbd.NewParticle(mgl64.Vec3{x, y, z}, mgl64.Vec3{}, 1, true)
}

func pinned(x, y, z float64) *xpbd.Particle {
	return xpbd.NewParticle(mgl64.Vec3{x, y, z}, mgl64.Vec3{}, 0, false)
}

// floor adds an immovable triangle covering |x|,|z| < 10 at height y.
func floor(sim *xpbd.Simulation, y float64) *xpbd.TriangleCollider {
	a, b, c := pinned(-20, y, -10), pinned(20, y, -10), pinned(0, y, 30)
	sim.AddParticle(a, b, c)
	collider := xpbd.NewTriangleCollider(a, b, c)
	sim.AddCollider(collider)
	return collider
}

var _ = Describe("Simulation", func() {
	var cfg xpbd.Config

	BeforeEach(func() {
		cfg = xpbd.Config{
			Substeps:    1,
			Iterations:  20,
			Damping:     1,
			Friction:    1,
			Restitution: 0,
			Gravity:     0,
		}
	})

	Describe("Config", func() {
		It("accepts the defaults", func() {
			Expect(xpbd.DefaultConfig().Validate()).To(Succeed())
		})

		DescribeTable("rejects out of range values",
			func(mutate func(*xpbd.Config)) {
				c := xpbd.DefaultConfig()
				mutate(&c)
				Expect(c.Validate()).To(MatchError(xpbd.ErrInvalidConfig))
			},
			Entry("zero substeps", func(c *xpbd.Config) { c.Substeps = 0 }),
			Entry("negative iterations", func(c *xpbd.Config) { c.Iterations = -1 }),
			Entry("damping above one", func(c *xpbd.Config) { c.Damping = 1.5 }),
			Entry("negative friction", func(c *xpbd.Config) { c.Friction = -0.1 }),
			Entry("NaN restitution", func(c *xpbd.Config) { c.Restitution = math.NaN() }),
			Entry("infinite gravity", func(c *xpbd.Config) { c.Gravity = math.Inf(1) }),
		)
	})

	Describe("Step", func() {
		It("leaves resting particles untouched without forces", func() {
			sim := xpbd.NewSimulation(cfg)
			a, b, c := still(0, 0, 0), still(1, 0, 0), still(0.3, 2, -1)
			sim.AddParticle(a, b, c)
			sim.AddConstraint(xpbd.NewRestDistanceConstraint(a, b, 0), xpbd.NewRestDistanceConstraint(b, c, 0.01))

			for i := 0; i < 100; i++ {
				sim.Step(frame)
			}

			Expect(a.Position).To(Equal(mgl64.Vec3{0, 0, 0}))
			Expect(b.Position).To(Equal(mgl64.Vec3{1, 0, 0}))
			Expect(c.Position).To(Equal(mgl64.Vec3{0.3, 2, -1}))
			Expect(sim.Stats().Projections).To(BeZero())
		})

		It("does nothing for a non-positive timestep", func() {
			cfg.Gravity = 9.81
			sim := xpbd.NewSimulation(cfg)
			p := still(0, 1, 0)
			sim.AddParticle(p)

			sim.Step(0)
			sim.Step(-frame)

			Expect(p.Position).To(Equal(mgl64.Vec3{0, 1, 0}))
			Expect(sim.Stats().Substeps).To(BeZero())
		})

		It("never moves immovable particles", func() {
			cfg.Gravity = 9.81
			sim := xpbd.NewSimulation(cfg)
			anchor := pinned(0, 5, 0)
			bob := still(0.2, 4, 0)
			sim.AddParticle(anchor, bob)
			sim.AddConstraint(xpbd.NewDistanceConstraint(anchor, bob, 1, 0))

			for i := 0; i < 120; i++ {
				sim.Step(frame)
				Expect(anchor.Position).To(Equal(mgl64.Vec3{0, 5, 0}))
			}
			Expect(bob.Position.Sub(anchor.Position).Len()).To(BeNumerically("~", 1, 1e-6))
		})

		It("does not drift an immovable particle that starts with a velocity", func() {
			sim := xpbd.NewSimulation(cfg)
			anchor := xpbd.NewParticle(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{4, 0, -2}, 0, true)
			sim.AddParticle(anchor)

			for i := 0; i < 30; i++ {
				sim.Step(frame)
			}
			Expect(anchor.Position).To(Equal(mgl64.Vec3{1, 2, 3}))
			Expect(anchor.PreviousPosition).To(Equal(mgl64.Vec3{1, 2, 3}))
		})

		It("corrects a stretched pair symmetrically", func() {
			sim := xpbd.NewSimulation(cfg)
			a := xpbd.NewParticle(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1, false)
			b := xpbd.NewParticle(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{}, 1, false)
			sim.AddParticle(a, b)
			sim.AddConstraint(xpbd.NewDistanceConstraint(a, b, 1, 0))

			sim.Step(frame)

			Expect(a.Position.X()).To(BeNumerically("~", 0.5, 1e-12))
			Expect(b.Position.X()).To(BeNumerically("~", 1.5, 1e-12))
			Expect(a.Velocity.Add(b.Velocity).Len()).To(BeNumerically("<", 1e-9))
		})

		It("converges a rigid chain under gravity", func() {
			cfg = xpbd.DefaultConfig()
			sim := xpbd.NewSimulation(cfg)
			prev := pinned(0, 0, 0)
			sim.AddParticle(prev)
			var links []*xpbd.DistanceConstraint
			for i := 1; i <= 8; i++ {
				p := xpbd.NewParticle(mgl64.Vec3{float64(i) * 0.25, 0, 0}, mgl64.Vec3{}, 1, true)
				sim.AddParticle(p)
				link := xpbd.NewRestDistanceConstraint(prev, p, 0)
				links = append(links, link)
				sim.AddConstraint(link)
				prev = p
			}

			for i := 0; i < 600; i++ {
				sim.Step(frame)
			}

			Expect(sim.Finite()).To(BeTrue())
			for _, link := range links {
				ps := link.Particles()
				stretch := ps[1].Position.Sub(ps[0].Position).Len() - link.RestDistance
				Expect(math.Abs(stretch)).To(BeNumerically("<", 0.05*link.RestDistance))
			}
			Expect(prev.Position.Y()).To(BeNumerically("<", -1.5))
		})
	})

	Describe("collisions", func() {
		It("creates a contact only when the displacement crosses a collider", func() {
			sim := xpbd.NewSimulation(cfg)
			floor(sim, 0)
			high := xpbd.NewParticle(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, 1, true)
			sideways := xpbd.NewParticle(mgl64.Vec3{1, 0.05, 0}, mgl64.Vec3{5, 0, 0}, 1, true)
			sim.AddParticle(high, sideways)

			sim.Step(frame)
			Expect(sim.Stats().Contacts).To(BeZero())

			falling := xpbd.NewParticle(mgl64.Vec3{0, 0.05, 0}, mgl64.Vec3{0, -10, 0}, 1, true)
			sim.AddParticle(falling)
			sim.Step(frame)

			Expect(sim.Stats().Contacts).To(Equal(1))
			Expect(sim.Contacts()).To(HaveLen(1))
			Expect(sim.Contacts()[0].Particle()).To(BeIdenticalTo(falling))
			Expect(sim.Contacts()[0].Active()).To(BeTrue())
			Expect(falling.Position.Y()).To(BeNumerically("~", 0, 1e-9))
		})

		It("records one contact per crossed triangle", func() {
			sim := xpbd.NewSimulation(cfg)
			floor(sim, 0)
			floor(sim, -0.05)
			p := xpbd.NewParticle(mgl64.Vec3{0, 0.05, 0}, mgl64.Vec3{0, -12, 0}, 1, true)
			sim.AddParticle(p)

			sim.Step(frame)

			Expect(sim.Stats().Contacts).To(Equal(2))
			Expect(p.Position.Y()).To(BeNumerically(">=", -1e-9))
		})

		It("applies restitution and friction to the contact velocity", func() {
			cfg.Restitution = 0.5
			cfg.Friction = 0.5
			sim := xpbd.NewSimulation(cfg)
			floor(sim, 0)
			p := xpbd.NewParticle(mgl64.Vec3{0, 0.05, 0}, mgl64.Vec3{6, -10, 0}, 1, true)
			sim.AddParticle(p)

			sim.Step(frame)

			Expect(p.Velocity.Y()).To(BeNumerically("~", 1.5, 1e-6))
			Expect(p.Velocity.X()).To(BeNumerically("~", 3, 1e-6))
		})

		It("does not collide a collider's particles with itself", func() {
			sim := xpbd.NewSimulation(cfg)
			collider := floor(sim, 0)
			corner := collider.Particles()[0]
			corner.InverseMass = 1
			corner.Velocity = mgl64.Vec3{0, -6, 0}

			sim.Step(frame)

			Expect(sim.Stats().Contacts).To(BeZero())
			Expect(corner.Position.Y()).To(BeNumerically("~", -0.1, 1e-12))
		})

		It("keeps a dropped particle above the ground", func() {
			cfg = xpbd.DefaultConfig()
			sim := xpbd.NewSimulation(cfg)
			floor(sim, 0)
			p := still(0.5, 2, 0.5)
			sim.AddParticle(p)

			for i := 0; i < 300; i++ {
				sim.Step(frame)
				Expect(p.Position.Y()).To(BeNumerically(">=", -1e-6))
			}
			Expect(p.Position.Y()).To(BeNumerically("<", 0.05))
		})
	})

	Describe("damping", func() {
		It("bounds the speed of a falling particle", func() {
			cfg.Gravity = 10
			cfg.Damping = 0.9
			sim := xpbd.NewSimulation(cfg)
			p := still(0, 0, 0)
			sim.AddParticle(p)

			// v' = 0.9 (v - g h) settles at -9 for h = 0.1.
			speed := 0.0
			for i := 0; i < 300; i++ {
				sim.Step(0.1)
				s := p.Velocity.Len()
				Expect(s).To(BeNumerically(">=", speed-1e-9))
				Expect(s).To(BeNumerically("<=", 9+1e-6))
				speed = s
			}
			Expect(p.Velocity.Y()).To(BeNumerically("~", -9, 1e-6))
		})

		It("reduces the kinetic energy of a free particle", func() {
			cfg.Damping = 0.5
			sim := xpbd.NewSimulation(cfg)
			sim.AddParticle(xpbd.NewParticle(mgl64.Vec3{}, mgl64.Vec3{4, 0, 0}, 1, false))

			before, _ := sim.Energy()
			sim.Step(frame)
			after, _ := sim.Energy()

			Expect(after).To(BeNumerically("<", before))
			Expect(after).To(BeNumerically("~", 2, 1e-9))
		})
	})

	Describe("editing", func() {
		var (
			sim  *xpbd.Simulation
			a, b *xpbd.Particle
			link *xpbd.DistanceConstraint
		)

		BeforeEach(func() {
			sim = xpbd.NewSimulation(cfg)
			a, b = still(0, 0, 0), still(1, 0, 0)
			link = xpbd.NewRestDistanceConstraint(a, b, 0)
			sim.AddParticle(a, b)
			sim.AddConstraint(link)
		})

		It("refuses to remove a referenced particle", func() {
			err := sim.RemoveParticle(a)
			Expect(errors.Is(err, xpbd.ErrParticleReferenced)).To(BeTrue())
			Expect(sim.Particles).To(HaveLen(2))
		})

		It("removes a particle once its constraints are gone", func() {
			Expect(sim.RemoveConstraint(link)).To(BeTrue())
			Expect(sim.RemoveConstraint(link)).To(BeFalse())
			Expect(sim.RemoveParticle(a)).To(Succeed())
			Expect(sim.Particles).To(ConsistOf(b))
		})

		It("refuses particles referenced by a collider", func() {
			c := still(0, 0, 1)
			sim.AddParticle(c)
			collider := xpbd.NewTriangleCollider(a, b, c)
			sim.AddCollider(collider)
			Expect(sim.RemoveConstraint(link)).To(BeTrue())

			Expect(sim.RemoveParticle(c)).To(MatchError(xpbd.ErrParticleReferenced))
			Expect(sim.RemoveCollider(collider)).To(BeTrue())
			Expect(sim.RemoveParticle(c)).To(Succeed())
		})

		It("reports unknown particles", func() {
			Expect(sim.RemoveParticle(still(9, 9, 9))).To(MatchError(xpbd.ErrUnknownParticle))
		})
	})
})
