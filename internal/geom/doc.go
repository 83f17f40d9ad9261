// Package geom provides the geometric primitives used for collision
// detection and pointer picking:
//
//   - [Ray]: half-line P = O + tD with unit direction
//   - [Sphere]: |P - C|^2 = R^2
//   - [Triangle]: P = (1 - u - v)A + uB + vC
//
// Intersection tests report (distance, hit). A miss is the normal result of a
// query, never an error.
//
// # Winding
//
// [Triangle.Normal] is normalize(AC x AB). Every caller in this module uses
// that convention; contact response orients the normal against the incoming
// motion itself, so colliders are two-sided.
package geom
