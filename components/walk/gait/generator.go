package gait

import (
	"fmt"
	"math"

	"github.com/adammck/biped"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "gait",
})

// Nominal is the reference pose of the whole robot for one tick, before any
// balance correction. All poses are in the world frame.
type Nominal struct {

	// Engine time, and progress through the active step.
	Time     float64
	Progress float64

	// True while a step is being executed.
	Stepping bool
	Swing    biped.Side
	Support  biped.Side

	// Center of mass reference, and its velocity.
	Com         math3d.Vector3
	ComVelocity math3d.Vector3

	Body  math3d.Pose
	Left  math3d.Pose
	Right math3d.Pose
}

func (n Nominal) String() string {
	return fmt.Sprintf("Nominal{t=%.3f p=%.3f com=%v body=%v L=%v R=%v}", n.Time, n.Progress, n.Com, n.Body, n.Left, n.Right)
}

// Foot returns the pose of the foot on the given side.
func (n Nominal) Foot(side biped.Side) math3d.Pose {
	if side == biped.Left {
		return n.Left
	}

	return n.Right
}

type Generator struct {
	cfg biped.GaitConfig
}

func New(cfg biped.GaitConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate returns the nominal pose for the given state. The support foot
// stays where it is, the swing foot follows a cosine arc to its target, and
// the center of mass follows a cubic curve from where it was at the start of
// the step to the step's target walk frame, swaying towards the support foot
// on the way.
func (g *Generator) Generate(s biped.WalkState) Nominal {
	n := Nominal{
		Time:    s.Time,
		Support: s.Support,
		Swing:   s.Support.Opposite(),
		Left:    s.Left,
		Right:   s.Right,
	}

	offset := math3d.Horizontal(s.Balance.Last.ComOffset)

	if s.Active == nil {
		n.Com = s.Com.Position.Add(offset)
		n.Body = g.body(n.Com, s.Origin.Heading, g.height(s))
		return n
	}

	a := s.Active
	step := a.Step
	tau := a.Progress()
	rate := progressRate(*a)
	f := SwingFrame(tau)

	n.Stepping = true
	n.Progress = tau
	n.Swing = step.Swing
	n.Support = step.Support()

	// Swing foot. Starts from wherever it actually is, which may differ from
	// the plan after an early touchdown.
	from := s.Foot(step.Swing)
	to := step.SwingTarget
	swing := math3d.Pose{
		Position: math3d.Lerp(from.Position, to.Position, f.Horizontal),
		Heading:  utils.NormalizeAngle(from.Heading + (utils.NormalizeAngle(to.Heading-from.Heading) * f.Horizontal)),
	}
	swing.Position.Z = from.Position.Z + (step.Apex * f.Vertical)
	if step.Swing == biped.Left {
		n.Left = swing
	} else {
		n.Right = swing
	}

	// Center of mass.
	pos, vel := g.com(s, tau)
	heading := utils.NormalizeAngle(step.Origin.Heading + (utils.NormalizeAngle(step.Target.Heading-step.Origin.Heading) * f.Horizontal))
	sway := math3d.MakeVector3(-math.Sin(heading), math.Cos(heading), 0).Mul(step.Support().Sign() * g.cfg.ComSway)

	n.Com = pos.Add(sway.Mul(math.Sin(math.Pi * tau))).Add(offset)
	n.ComVelocity = vel.Mul(step.Duration * rate).Add(sway.Mul(math.Pi * math.Cos(math.Pi*tau) * rate))
	n.Body = g.body(n.Com, heading, g.height(s))

	return n
}

// Boundary returns the center of mass reference (without sway or balance
// offset) at the current progress through the active step. When a step is
// retired, this becomes the starting point of the next one, so the reference
// never jumps between steps.
func (g *Generator) Boundary(s biped.WalkState) biped.ComState {
	if s.Active == nil {
		return s.Com
	}

	a := s.Active
	pos, vel := g.com(s, a.Progress())
	return biped.ComState{
		Position: pos,
		Velocity: vel.Mul(a.Step.Duration * progressRate(*a)),
	}
}

// Tangent returns the velocity at which the center of mass should cross the
// end of the active step. It previews the next queued step, so the reference
// flows through the step boundary instead of stopping at it; with nothing
// queued, it comes to rest.
func Tangent(s biped.WalkState) math3d.Vector3 {
	if s.Active == nil || len(s.Queue) == 0 {
		return math3d.ZeroVector3
	}

	cur := s.Active.Step
	next := s.Queue[0]
	d := math3d.Horizontal(next.Target.Position.Sub(cur.Origin.Position))
	return d.Mul(1 / (cur.Duration + next.Duration))
}

// com evaluates the center of mass curve at progress t. The velocity is with
// respect to time, at the planned duration of the step.
func (g *Generator) com(s biped.WalkState, t float64) (math3d.Vector3, math3d.Vector3) {
	dur := s.Active.Step.Duration
	p0 := math3d.Horizontal(s.Com.Position)
	v0 := math3d.Horizontal(s.Com.Velocity).Mul(dur)
	p1 := math3d.Horizontal(s.Active.Step.Target.Position)
	v1 := Tangent(s).Mul(dur)

	h00, h10, h01, h11 := hermite(t)
	d00, d10, d01, d11 := hermiteDerivative(t)

	pos := p0.Mul(h00).Add(v0.Mul(h10)).Add(p1.Mul(h01)).Add(v1.Mul(h11))
	vel := p0.Mul(d00).Add(v0.Mul(d10)).Add(p1.Mul(d01)).Add(v1.Mul(d11)).Mul(1 / dur)

	// Exact at the ends, so that chained steps meet precisely.
	if t >= 1 {
		pos = p1
		vel = Tangent(s)
	}

	return pos, vel
}

func (g *Generator) body(com math3d.Vector3, heading, height float64) math3d.Pose {
	return math3d.Pose{
		Position: math3d.MakeVector3(com.X, com.Y, height),
		Heading:  heading,
	}
}

// height returns the height of the hips in the given state.
func (g *Generator) height(s biped.WalkState) float64 {
	if s.Height > 0 {
		return s.Height
	}

	return g.cfg.WalkHeight
}

// progressRate returns the rate of change of progress, per second.
func progressRate(a biped.ActiveStep) float64 {
	remaining := a.Duration - a.WarpPhase
	if remaining <= 0 {
		return 0
	}

	return (1 - a.WarpProgress) / remaining
}
