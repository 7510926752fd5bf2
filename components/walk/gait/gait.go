package gait

import (
	"math"
)

// Frame is the position of a swinging foot partway through a step, as ratios:
// Horizontal is the fraction of the distance from start to target, and
// Vertical is the fraction of the apex height.
type Frame struct {
	Horizontal float64
	Vertical   float64
}

// SwingFrame returns the frame at progress t in [0, 1]. Both curves are cosine
// blends, so the foot leaves and meets the ground with zero velocity.
func SwingFrame(t float64) Frame {
	return Frame{
		Horizontal: 0.5 - (math.Cos(t*math.Pi) / 2),
		Vertical:   0.5 - (math.Cos(t*2*math.Pi) / 2),
	}
}

// Hermite basis functions on [0, 1], and their derivatives.
func hermite(t float64) (h00, h10, h01, h11 float64) {
	t2 := t * t
	t3 := t2 * t
	h00 = (2 * t3) - (3 * t2) + 1
	h10 = t3 - (2 * t2) + t
	h01 = (-2 * t3) + (3 * t2)
	h11 = t3 - t2
	return
}

func hermiteDerivative(t float64) (d00, d10, d01, d11 float64) {
	t2 := t * t
	d00 = (6 * t2) - (6 * t)
	d10 = (3 * t2) - (4 * t) + 1
	d01 = (-6 * t2) + (6 * t)
	d11 = (3 * t2) - (2 * t)
	return
}
