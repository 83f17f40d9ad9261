// Package viz draws simulations in the terminal.
//
// [Model] is a Bubble Tea program that steps a scene at a fixed tick and
// renders it as a braille wireframe ([Canvas]) seen through an orbiting
// [Camera]. The stats panel shows solver counters and a kinetic energy
// graph.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	N       - Single step while paused
//	R       - Rebuild the scene
//	Arrows  - Orbit the camera
//	+/-     - Zoom
//	WASD    - Move the cursor
//	G       - Grab or release the particle under the cursor
//	V       - Toggle GIF recording
//
// The left mouse button grabs and drags particles as well.
package viz
