package math3d

import (
	"github.com/golang/geo/r3"
)

// Vector3 is a point or direction in a right-handed, z-up frame: x points
// forwards, y to the left.
type Vector3 = r3.Vector

var (
	ZeroVector3 = Vector3{}
	UnitX       = Vector3{X: 1}
	UnitY       = Vector3{Y: 1}
	UnitZ       = Vector3{Z: 1}
)

// MakeVector3 returns a new Vector3.
func MakeVector3(x float64, y float64, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Lerp returns the point at ratio t along the line from a to b.
func Lerp(a Vector3, b Vector3, t float64) Vector3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Horizontal returns the vector with its Z component dropped.
func Horizontal(v Vector3) Vector3 {
	return Vector3{X: v.X, Y: v.Y}
}
