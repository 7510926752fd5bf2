package kinematics

import (
	"fmt"
	"math"

	"github.com/adammck/biped"
	"github.com/adammck/biped/utils"
)

// Range is an inclusive range of joint angles, in radians.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits are the mechanical ranges of each leg joint, in the order of
// biped.Leg. Roll limits are for the left leg; the right leg is mirrored.
var Limits = [biped.LegJoints]Range{
	{-1.0, 1.0},  // hip yaw
	{-0.4, 0.8},  // hip roll
	{-1.6, 0.5},  // hip pitch
	{-0.1, 2.2},  // knee
	{-1.2, 0.9},  // ankle pitch
	{-0.4, 0.45}, // ankle roll
}

var limitNames = [biped.LegJoints]string{
	"hip yaw", "hip roll", "hip pitch", "knee", "ankle pitch", "ankle roll",
}

// SideLimits returns the limits for one leg. The right leg is a mirror image,
// so its roll limits are flipped.
func SideLimits(side biped.Side) [biped.LegJoints]Range {
	out := Limits
	if side == biped.Right {
		for _, i := range []int{1, 5} {
			out[i] = Range{-Limits[i].Max, -Limits[i].Min}
		}
	}

	return out
}

// CheckLimits returns ErrUnreachablePose if any angle is NaN or outside its
// range.
func CheckLimits(side biped.Side, a LegAngles) error {
	limits := SideLimits(side)

	for i, v := range a.Array() {
		lim := limits[i]

		if math.IsNaN(v) {
			log.Errorf("invalid %s %s angle: %0.2f", side, limitNames[i], v)
			return fmt.Errorf("%w: %s %s is NaN", biped.ErrUnreachablePose, side, limitNames[i])
		}

		if !lim.Contains(v) {
			return fmt.Errorf("%w: %s %s %.1f° outside [%.1f°, %.1f°]", biped.ErrUnreachablePose, side, limitNames[i], utils.Deg(v), utils.Deg(lim.Min), utils.Deg(lim.Max))
		}
	}

	return nil
}
