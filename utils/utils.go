package utils

import (
	"math"

	"github.com/adammck/dynamixel/network"
)

func Deg(rads float64) float64 {
	return rads / (math.Pi / 180)
}

func Rad(degrees float64) float64 {
	return (math.Pi / 180) * degrees
}

// NormalizeAngle wraps an angle (in radians) into [-π, π).
func NormalizeAngle(a float64) float64 {
	return a - (2 * math.Pi * math.Floor((a+math.Pi)/(2*math.Pi)))
}

// Clamp returns v limited to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampAbs returns v limited to the range [-lim, lim].
func ClampAbs(v, lim float64) float64 {
	return Clamp(v, -lim, lim)
}

// Sync runs the given function while the network is in buffered mode, then
// initiates any movements at once by sending ACTION.
func Sync(n *network.Network, f func()) {
	n.SetBuffered(true)
	f()
	n.SetBuffered(false)
	n.Action()
}
