package xpbd

import "errors"

// Host misuse errors. Degenerate numerics inside a step are never errors;
// they are skipped silently.
var (
	// ErrInvalidConfig indicates a solver setting outside its valid range.
	ErrInvalidConfig = errors.New("xpbd: invalid simulation config")

	// ErrParticleReferenced indicates an attempt to remove a particle that a
	// live constraint or collider still points at.
	ErrParticleReferenced = errors.New("xpbd: particle still referenced")

	// ErrUnknownParticle indicates a particle the simulation does not own.
	ErrUnknownParticle = errors.New("xpbd: particle not in simulation")
)
