// Package xpbd implements a particle simulator using Extended Position-Based
// Dynamics.
//
// The building blocks are:
//
//   - [Particle]: point mass with position, velocity and inverse mass
//   - [Constraint]: scalar error plus per-particle gradient, corrected with
//     [Project] and velocity-smoothed with [Dampen]
//   - [DistanceConstraint], [BendConstraint], [DihedralConstraint],
//     [CollisionConstraint]: the concrete variants
//   - [TriangleCollider]: three particles forming a collision surface
//   - [Simulation]: substepped integrate / detect / solve / reconcile loop
//
// # Example
//
//	sim := xpbd.NewSimulation(xpbd.DefaultConfig())
//	a := xpbd.NewParticle(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{}, 0, false)
//	b := xpbd.NewParticle(mgl64.Vec3{1, 2, 0}, mgl64.Vec3{}, 1, true)
//	sim.AddParticle(a, b)
//	sim.AddConstraint(xpbd.NewDistanceConstraint(a, b, 1, 0))
//	for i := 0; i < 60; i++ {
//	    sim.Step(1.0 / 60)
//	}
//
// # Immovable particles
//
// A particle with InverseMass 0 has infinite mass. Constraints and contacts
// never move it, gravity and damping leave its velocity alone, and it only
// moves by the velocity the host assigns it. That makes moving colliders
// possible without any extra machinery.
//
// # Thread Safety
//
// A Simulation is NOT safe for concurrent use. The host may add or remove
// particles, constraints and colliders between calls to [Simulation.Step],
// never during one.
package xpbd
