package xpbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Along splits v into its component along dir and the orthogonal remainder.
// A zero dir yields a zero along component.
func Along(v, dir mgl64.Vec3) (along, orthogonal mgl64.Vec3) {
	l := dir.Len()
	if l == 0 {
		return mgl64.Vec3{}, v
	}
	unit := dir.Mul(1 / l)
	along = unit.Mul(v.Dot(unit))
	return along, v.Sub(along)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl64.Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}
