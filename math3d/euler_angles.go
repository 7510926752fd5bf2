package math3d

import (
	"fmt"

	"github.com/adammck/biped/utils"
)

// EulerAngles describe an orientation as successive rotations about the fixed
// X (roll), Y (pitch) and Z (yaw) axes, in that order. All angles are radians.
type EulerAngles struct {
	Roll  float64 // x
	Pitch float64 // y
	Yaw   float64 // z
}

type rotation int

const (
	RotationRoll  rotation = iota
	RotationPitch rotation = iota
	RotationYaw   rotation = iota
)

var (
	IdentityOrientation = EulerAngles{}
)

// MakeSingularEulerAngle returns an orientation which rotates by angle (in
// radians) around a single axis.
func MakeSingularEulerAngle(rot rotation, angle float64) EulerAngles {
	ea := EulerAngles{}

	switch rot {
	case RotationRoll:
		ea.Roll = angle

	case RotationPitch:
		ea.Pitch = angle

	case RotationYaw:
		ea.Yaw = angle

	default:
		panic("invalid rotation")
	}

	return ea
}

func (ea EulerAngles) String() string {
	return fmt.Sprintf("&Euler{r=%+.2f° p=%+.2f° y=%+.2f°}", utils.Deg(ea.Roll), utils.Deg(ea.Pitch), utils.Deg(ea.Yaw))
}
