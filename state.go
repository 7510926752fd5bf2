package biped

import (
	"github.com/adammck/biped/math3d"
)

type Mode int

const (
	Idle Mode = iota
	Walking
	Stopping

	// Standing still, moving the hips to or from the sitting height.
	Sitting
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Walking:
		return "walking"
	case Stopping:
		return "stopping"
	case Sitting:
		return "sitting"
	default:
		return "invalid"
	}
}

// ComState is the horizontal position and velocity of the center of mass
// reference, in the world frame.
type ComState struct {
	Position math3d.Vector3
	Velocity math3d.Vector3
}

// Correction is the output of the balance controller for a single tick. Every
// field is already clamped to its configured limit.
type Correction struct {

	// Horizontal shift of the center of mass reference, in the world frame.
	ComOffset math3d.Vector3

	// Added to the ankle and hip joints (radians).
	AnklePitch float64
	AnkleRoll  float64
	HipPitch   float64
	HipRoll    float64

	// Change to the duration of the active step, in seconds.
	Timing float64

	// Added to the swing ankle, to keep the swing foot level with the ground
	// while the torso is tilted.
	SwingAnklePitch float64
	SwingAnkleRoll  float64
}

// BalanceState is the memory of the balance controller between ticks.
type BalanceState struct {

	// Low-pass filtered angular velocity.
	Gyro math3d.Vector3

	// The torso orientation from the last frame which wasn't stale.
	Tilt     math3d.EulerAngles
	Sequence uint64

	// Consecutive ticks with the tilt past the fall threshold.
	OverThreshold int

	// The correction from the last tick. The center of mass offset is applied
	// to the reference on the following tick.
	Last Correction
}

// WalkState is everything the walking engine knows. It's owned by the caller,
// passed into every tick, and replaced by the state which the tick returns.
type WalkState struct {
	Mode Mode

	// The step being executed, or nil while standing.
	Active *ActiveStep

	// Upcoming steps, in the order that they'll be executed.
	Queue []Step

	// Center of mass reference at the start of the active step.
	Com ComState

	// Foot poses (world frame) at the start of the active step.
	Left  math3d.Pose
	Right math3d.Pose

	// The foot which is currently on the ground, or the last one to land.
	Support Side

	// The walk frame at the start of the active step.
	Origin math3d.Pose

	// The last command, after clamping and acceleration limits.
	Velocity WalkCommand

	// Height of the hips above the ground. Zero means the walking height.
	Height float64

	// Seconds since the state was created.
	Time float64

	Balance BalanceState

	// Previous output, reused if the legs can't reach a target.
	LastJoints JointCommand

	// Consecutive non-zero commands received while idle.
	StartTicks int

	// Consecutive ticks which overran the control period.
	Misses int
}

// NewWalkState returns the state of a robot standing at the origin, feet
// apart by the given stance width.
func NewWalkState(stance StanceConfig) WalkState {
	return WalkState{
		Mode:    Idle,
		Left:    math3d.Pose{Position: math3d.MakeVector3(0, +stance.Width/2, 0)},
		Right:   math3d.Pose{Position: math3d.MakeVector3(0, -stance.Width/2, 0)},
		Support: Left,
	}
}

// Clone returns a copy of the state which shares no memory with s.
func (s WalkState) Clone() WalkState {
	out := s

	if s.Active != nil {
		a := *s.Active
		out.Active = &a
	}

	if s.Queue != nil {
		out.Queue = append([]Step(nil), s.Queue...)
	}

	return out
}

// Foot returns the pose of the foot on the given side.
func (s WalkState) Foot(side Side) math3d.Pose {
	if side == Left {
		return s.Left
	}

	return s.Right
}

// SetFoot replaces the pose of the foot on the given side.
func (s *WalkState) SetFoot(side Side, p math3d.Pose) {
	if side == Left {
		s.Left = p
	} else {
		s.Right = p
	}
}
