package biped

import (
	"fmt"
)

type Joint int

const (
	LHipYaw Joint = iota
	LHipRoll
	LHipPitch
	LKnee
	LAnklePitch
	LAnkleRoll
	RHipYaw
	RHipRoll
	RHipPitch
	RKnee
	RAnklePitch
	RAnkleRoll
	LShoulderPitch
	RShoulderPitch

	NumJoints = int(iota)
)

// The number of joints in each leg, from the hip down.
const LegJoints = 6

var jointNames = [NumJoints]string{
	"LHipYaw", "LHipRoll", "LHipPitch", "LKnee", "LAnklePitch", "LAnkleRoll",
	"RHipYaw", "RHipRoll", "RHipPitch", "RKnee", "RAnklePitch", "RAnkleRoll",
	"LShoulderPitch", "RShoulderPitch",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("Joint(%d)", int(j))
	}

	return jointNames[j]
}

// Leg returns the joints of one leg, ordered hip yaw, hip roll, hip pitch,
// knee, ankle pitch, ankle roll.
func Leg(side Side) [LegJoints]Joint {
	if side == Left {
		return [LegJoints]Joint{LHipYaw, LHipRoll, LHipPitch, LKnee, LAnklePitch, LAnkleRoll}
	}

	return [LegJoints]Joint{RHipYaw, RHipRoll, RHipPitch, RKnee, RAnklePitch, RAnkleRoll}
}

// Shoulder returns the shoulder pitch joint on the given side.
func Shoulder(side Side) Joint {
	if side == Left {
		return LShoulderPitch
	}

	return RShoulderPitch
}

// JointCommand is the output of one control cycle: a target position (radians)
// and a stiffness (0..1) for every joint.
type JointCommand struct {
	Position  [NumJoints]float64
	Stiffness [NumJoints]float64
}

// SetLeg writes the six angles of one leg, in the order returned by Leg.
func (jc *JointCommand) SetLeg(side Side, angles [LegJoints]float64) {
	for i, j := range Leg(side) {
		jc.Position[j] = angles[i]
	}
}

// LegAngles reads back the six angles of one leg.
func (jc JointCommand) LegAngles(side Side) [LegJoints]float64 {
	var out [LegJoints]float64
	for i, j := range Leg(side) {
		out[i] = jc.Position[j]
	}

	return out
}
