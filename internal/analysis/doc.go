// Package analysis inspects recorded trajectories.
//
//   - [PowerSpectrum]: magnitude spectrum of a sampled signal
//   - [DominantFrequency]: strongest non-DC frequency, e.g. a rope's sway
//   - [Coordinate]: one coordinate of one particle across frames
//   - [GeneratePhasePortrait]: position against finite-difference velocity
//
// # Oscillation
//
// A pinned rope swinging under gravity oscillates at roughly the pendulum
// frequency of its length:
//
//	ys := analysis.Coordinate(frames, last, 1)
//	f := analysis.DominantFrequency(ys, dt)
package analysis
