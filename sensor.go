package biped

import (
	"github.com/adammck/biped/math3d"
)

// SensorFrame is one snapshot of the robot's sensors. Frames are consumed by a
// single tick and then discarded.
type SensorFrame struct {
	Sequence uint64

	// Time at which the frame was captured, in seconds on the engine clock.
	Timestamp float64

	// Torso orientation relative to gravity, and its rate of change (rad/s)
	// around each axis.
	Orientation     math3d.EulerAngles
	AngularVelocity math3d.Vector3

	// Force (newtons) measured under each foot, indexed by Side.
	FootPressure [2]float64

	// Measured joint positions.
	Encoders [NumJoints]float64
}

// Contact returns true if the foot on the given side is pressing on the ground
// with more than threshold newtons.
func (f SensorFrame) Contact(side Side, threshold float64) bool {
	return f.FootPressure[side] > threshold
}
