package math3d

import (
	"fmt"
	"math"

	"github.com/adammck/biped/utils"
)

// Pose is a position plus a heading (rotation around Z, in radians). Feet and
// walk frames are described this way, since they stay flat on the ground.
type Pose struct {
	Position Vector3
	Heading  float64
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{x=%+.3f y=%+.3f z=%+.3f, h=%+.2f°}", p.Position.X, p.Position.Y, p.Position.Z, utils.Deg(p.Heading))
}

// Add returns pp (which is relative to p) in the space which p is relative to.
func (p Pose) Add(pp Pose) Pose {
	return Pose{
		Position: p.Position.Add(rotateZ(pp.Position, p.Heading)),
		Heading:  utils.NormalizeAngle(p.Heading + pp.Heading),
	}
}

// Out returns pp (which is in the same space as p) relative to p. It is the
// inverse of Add, such that p.Add(p.Out(pp)) == pp.
func (p Pose) Out(pp Pose) Pose {
	return Pose{
		Position: rotateZ(pp.Position.Sub(p.Position), -p.Heading),
		Heading:  utils.NormalizeAngle(pp.Heading - p.Heading),
	}
}

// Matrix returns the transform from the pose's space to its parent space.
func (p Pose) Matrix() Matrix44 {
	return MakeMatrix44(p.Position, MakeSingularEulerAngle(RotationYaw, p.Heading))
}

func rotateZ(v Vector3, a float64) Vector3 {
	c := math.Cos(a)
	s := math.Sin(a)
	return Vector3{
		X: (c * v.X) - (s * v.Y),
		Y: (s * v.X) + (c * v.Y),
		Z: v.Z,
	}
}
