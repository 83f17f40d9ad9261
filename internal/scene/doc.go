// Package scene assembles particles, constraints and colliders into ready to
// step simulations.
//
// Builders add what they create to the given Simulation and return it as a
// Body so callers can find their particles again:
//
//	sim := xpbd.NewSimulation(xpbd.DefaultConfig())
//	scene.Ground(sim, 30, 0)
//	rope := scene.Rope(sim, mgl64.Vec3{0, 8, 0}, cfg.Rope)
//
// Build does the same from a config.Config, dispatching on its Scene field.
// Grabber is the interactive pull tool used by the live viewer.
package scene
