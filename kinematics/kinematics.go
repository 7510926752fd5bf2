package kinematics

import (
	"fmt"
	"math"

	"github.com/adammck/biped"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "kinematics",
})

// LegAngles are the joint angles of one leg, in radians.
type LegAngles struct {
	HipYaw     float64
	HipRoll    float64
	HipPitch   float64
	Knee       float64
	AnklePitch float64
	AnkleRoll  float64
}

func (a LegAngles) String() string {
	return fmt.Sprintf("Leg{hy=%+.1f° hr=%+.1f° hp=%+.1f° k=%+.1f° ap=%+.1f° ar=%+.1f°}",
		utils.Deg(a.HipYaw), utils.Deg(a.HipRoll), utils.Deg(a.HipPitch),
		utils.Deg(a.Knee), utils.Deg(a.AnklePitch), utils.Deg(a.AnkleRoll))
}

// Array returns the angles in the joint order of biped.Leg.
func (a LegAngles) Array() [biped.LegJoints]float64 {
	return [biped.LegJoints]float64{a.HipYaw, a.HipRoll, a.HipPitch, a.Knee, a.AnklePitch, a.AnkleRoll}
}

// MakeLegAngles is the inverse of LegAngles.Array.
func MakeLegAngles(v [biped.LegJoints]float64) LegAngles {
	return LegAngles{v[0], v[1], v[2], v[3], v[4], v[5]}
}

// Leg is a six joint leg: hip yaw, roll and pitch intersecting at the hip,
// then the thigh, knee pitch, tibia, ankle pitch and roll, and a fixed drop
// from the ankle to the sole. All joints are zero when the leg hangs straight
// down with the sole flat.
type Leg struct {
	dims biped.KinematicsConfig
}

func New(dims biped.KinematicsConfig) *Leg {
	return &Leg{dims: dims}
}

// Hip returns the position of the hip joint of the given leg, relative to the
// body origin.
func (l *Leg) Hip(side biped.Side) math3d.Vector3 {
	return math3d.MakeVector3(0, side.Sign()*l.dims.HipOffsetY, -l.dims.HipOffsetZ)
}

// Forward returns the transform from the sole of the given leg to the body
// frame, given the joint angles.
func (l *Leg) Forward(side biped.Side, a LegAngles) math3d.Matrix44 {
	return math3d.Chain(
		math3d.Translation(l.Hip(side)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationYaw, a.HipYaw)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationRoll, a.HipRoll)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationPitch, a.HipPitch)),
		math3d.Translation(math3d.MakeVector3(0, 0, -l.dims.ThighLength)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationPitch, a.Knee)),
		math3d.Translation(math3d.MakeVector3(0, 0, -l.dims.TibiaLength)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationPitch, a.AnklePitch)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationRoll, a.AnkleRoll)),
		math3d.Translation(math3d.MakeVector3(0, 0, -l.dims.FootHeight)),
	)
}

// Solve returns the joint angles which put the sole of the given leg at the
// foot pose, with the body at the body pose. Both poses are in the same
// (usually world) frame, and the body is assumed to be upright.
func (l *Leg) Solve(side biped.Side, foot math3d.Pose, body math3d.Pose) (LegAngles, error) {
	m := math3d.MultiplyMatrices(body.Matrix().Inverse(), foot.Matrix())
	return l.SolveMatrix(side, m)
}

// SolveMatrix returns the joint angles which produce the given sole transform
// (in the body frame), such that Forward(side, angles) == m. Returns
// ErrUnreachablePose if the ankle is out of reach or a joint would exceed its
// limits.
func (l *Leg) SolveMatrix(side biped.Side, m math3d.Matrix44) (LegAngles, error) {
	a := l.dims.ThighLength
	b := l.dims.TibiaLength

	// Work backwards from the sole to the ankle, then express the hip in the
	// frame of the foot. The ankle joints are the only thing between the two.
	rf := m.RotationOnly()
	ankle := m.Transform(math3d.MakeVector3(0, 0, l.dims.FootHeight))
	r := rf.Inverse().Rotate(l.Hip(side).Sub(ankle))
	dist := r.Norm()

	if dist > a+b+epsilon || dist < math.Abs(a-b)-epsilon {
		return LegAngles{}, fmt.Errorf("%w: %s hip-ankle distance %.4f outside [%.4f, %.4f]", biped.ErrUnreachablePose, side, dist, math.Abs(a-b), a+b)
	}

	// Knee from the law of cosines. Zero is straight.
	knee := math.Acos(utils.Clamp(((dist*dist)-(a*a)-(b*b))/(2*a*b), -1, 1))

	// Ankle roll points the foot's Y axis at the hip; ankle pitch then leans the
	// tibia back along the hip-ankle line by the inner angle of the triangle.
	// When the hip is below the ankle in the foot frame (the foot pitched far
	// up), rolling to face it would need half a turn, so roll away from it and
	// let the pitch go past vertical instead.
	ar := math.Atan2(r.Y, r.Z)
	vz := math.Hypot(r.Y, r.Z)
	if r.Z < 0 {
		ar = math.Atan2(-r.Y, -r.Z)
		vz = -vz
	}
	delta := math.Atan2(a*math.Sin(knee), b+(a*math.Cos(knee)))
	ap := -(math.Atan2(r.X, vz) + delta)

	// Whatever rotation remains belongs to the hip: Rz(yaw)*Rx(roll)*Ry(pitch).
	hip := math3d.Chain(
		rf,
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationRoll, -ar)),
		math3d.Rotation(math3d.MakeSingularEulerAngle(math3d.RotationPitch, -(knee+ap))),
	).Elements()

	angles := LegAngles{
		HipYaw:     math.Atan2(-hip[0][1], hip[1][1]),
		HipRoll:    math.Asin(utils.Clamp(hip[2][1], -1, 1)),
		HipPitch:   math.Atan2(-hip[2][0], hip[2][2]),
		Knee:       knee,
		AnklePitch: ap,
		AnkleRoll:  ar,
	}

	err := CheckLimits(side, angles)
	if err != nil {
		return LegAngles{}, err
	}

	return angles, nil
}

const epsilon = 1e-9
