package planner

import (
	"fmt"
	"math"

	"github.com/adammck/biped"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "planner",
})

// Footing is where the robot will be standing when a step begins: the walk
// frame, both feet, and which of them swings next.
type Footing struct {
	Origin math3d.Pose
	Left   math3d.Pose
	Right  math3d.Pose
	Swing  biped.Side
}

// Foot returns the pose of the foot on the given side.
func (f Footing) Foot(side biped.Side) math3d.Pose {
	if side == biped.Left {
		return f.Left
	}

	return f.Right
}

// After returns the footing at the end of the given step, with the other foot
// about to swing.
func After(s biped.Step) Footing {
	f := Footing{
		Origin: s.Target,
		Swing:  s.Swing.Opposite(),
	}

	if s.Swing == biped.Left {
		f.Left = s.SwingTarget
		f.Right = s.SupportStart
	} else {
		f.Left = s.SupportStart
		f.Right = s.SwingTarget
	}

	return f
}

// Standing returns the footing of a robot which is standing still, given the
// side which should swing first.
func Standing(s biped.WalkState, swing biped.Side) Footing {
	return Footing{
		Origin: s.Origin,
		Left:   s.Left,
		Right:  s.Right,
		Swing:  swing,
	}
}

// FirstSwing returns the side which should swing when starting to walk. The
// foot on the side of travel moves first, or the left when going straight.
func FirstSwing(cmd biped.WalkCommand) biped.Side {
	if cmd.Lateral >= 0 {
		return biped.Left
	}

	return biped.Right
}

type Planner struct {
	cfg    biped.StepConfig
	stance biped.StanceConfig
}

func New(cfg biped.StepConfig, stance biped.StanceConfig) *Planner {
	return &Planner{
		cfg:    cfg,
		stance: stance,
	}
}

// Plan returns the next step from the given footing, moving the walk frame at
// the given velocity. The displacement is clamped to the step size limits and
// to the minimum stance width. Returns ErrInfeasibleStep if the result still
// can't be reached.
func (p *Planner) Plan(f Footing, v biped.WalkCommand) (biped.Step, error) {
	t := p.cfg.NominalDuration
	fwd := utils.ClampAbs(v.Forward*t, p.cfg.MaxForward)
	lat := utils.ClampAbs(v.Lateral*t, p.cfg.MaxLateral)
	turn := utils.ClampAbs(v.Turn*t, p.cfg.MaxTurn)

	lat = p.clampStance(f, fwd, lat, turn)

	s := p.build(f, fwd, lat, turn)
	err := p.check(f, s)
	if err != nil {
		return biped.Step{}, err
	}

	return s, nil
}

// InPlace returns a step which swings the next foot back to its home position
// without moving the walk frame. It's used when the planned step is
// infeasible.
func (p *Planner) InPlace(f Footing) biped.Step {
	return p.build(f, 0, 0, 0)
}

// Terminating returns the step which brings the swing foot beside the support
// foot, with the walk frame centered between them.
func (p *Planner) Terminating(f Footing) biped.Step {
	support := f.Foot(f.Swing.Opposite())
	support.Position.Z = 0

	w := p.stance.Width / 2
	stop := support.Add(math3d.Pose{Position: math3d.MakeVector3(0, -f.Swing.Opposite().Sign()*w, 0)})
	d := f.Origin.Out(stop)

	return biped.Step{
		Forward:      d.Position.X,
		Lateral:      d.Position.Y,
		Turn:         d.Heading,
		Duration:     p.cfg.NominalDuration,
		Apex:         utils.Clamp(p.cfg.BaseFootLift, p.cfg.MinApex, p.cfg.MaxApex),
		Swing:        f.Swing,
		Origin:       f.Origin,
		Target:       stop,
		SupportStart: support,
		SwingStart:   f.Foot(f.Swing),
		SwingTarget:  stop.Add(math3d.Pose{Position: math3d.MakeVector3(0, f.Swing.Sign()*w, 0)}),
		Terminating:  true,
	}
}

// build returns the step which moves the walk frame by the given displacement,
// without checking it.
func (p *Planner) build(f Footing, fwd, lat, turn float64) biped.Step {
	target := f.Origin.Add(math3d.Pose{Position: math3d.MakeVector3(fwd, lat, 0), Heading: turn})
	size := p.size(fwd, lat, turn)

	return biped.Step{
		Forward:      fwd,
		Lateral:      lat,
		Turn:         turn,
		Duration:     utils.Clamp(p.cfg.NominalDuration+(p.cfg.DurationModifier*size), p.cfg.MinDuration, p.cfg.MaxDuration),
		Apex:         utils.Clamp(p.cfg.BaseFootLift+(p.cfg.FootLiftModifier*size), p.cfg.MinApex, p.cfg.MaxApex),
		Swing:        f.Swing,
		Origin:       f.Origin,
		Target:       target,
		SupportStart: f.Foot(f.Swing.Opposite()),
		SwingStart:   f.Foot(f.Swing),
		SwingTarget:  target.Add(math3d.Pose{Position: math3d.MakeVector3(fwd/2, f.Swing.Sign()*p.stance.Width/2, 0)}),
	}
}

// size returns the magnitude of a displacement relative to the largest
// possible step, in [0, 1].
func (p *Planner) size(fwd, lat, turn float64) float64 {
	s := 0.0
	if p.cfg.MaxForward > 0 {
		s = math.Max(s, math.Abs(fwd)/p.cfg.MaxForward)
	}
	if p.cfg.MaxLateral > 0 {
		s = math.Max(s, math.Abs(lat)/p.cfg.MaxLateral)
	}
	if p.cfg.MaxTurn > 0 {
		s = math.Max(s, math.Abs(turn)/p.cfg.MaxTurn)
	}

	return math.Min(s, 1)
}

// clampStance limits the lateral displacement such that, once the step has
// landed, the feet are at least the minimum stance width apart (measured along
// the Y axis of the new walk frame). When the limit applies, the width is
// exactly the minimum.
//
// The swing foot always lands half the stance width from the new walk frame,
// so only the position of the support foot in that frame depends on lat:
//
//	y = cos(turn)*(sy - lat) - sin(turn)*(sx - fwd)
//
// where (sx, sy) is the support foot in the old walk frame.
func (p *Planner) clampStance(f Footing, fwd, lat, turn float64) float64 {
	s := f.Origin.Out(f.Foot(f.Swing.Opposite())).Position
	w := p.stance.Width / 2
	minWidth := p.stance.MinWidth
	c := math.Cos(turn)
	sn := math.Sin(turn) * (s.X - fwd)

	if f.Swing == biped.Right {

		// Support is on the left: y - (-w) >= minWidth.
		most := s.Y - ((minWidth - w + sn) / c)
		if lat > most {
			log.Debugf("clamping lateral %+.3f to %+.3f (stance width)", lat, most)
			return most
		}

	} else {

		// Support is on the right: w - y >= minWidth.
		least := s.Y - ((w - minWidth + sn) / c)
		if lat < least {
			log.Debugf("clamping lateral %+.3f to %+.3f (stance width)", lat, least)
			return least
		}
	}

	return lat
}

// check returns ErrInfeasibleStep if the swing foot would land out of reach of
// the support foot, or has too far to travel.
func (p *Planner) check(f Footing, s biped.Step) error {
	sep := horizontal(s.SupportStart).Distance(horizontal(s.SwingTarget))
	if sep > p.cfg.MaxFootSeparation {
		return fmt.Errorf("%w: feet %.3fm apart, limit is %.3fm", biped.ErrInfeasibleStep, sep, p.cfg.MaxFootSeparation)
	}

	travel := horizontal(s.SwingStart).Distance(horizontal(s.SwingTarget))
	if travel > p.cfg.MaxSwingDistance {
		return fmt.Errorf("%w: swing of %.3fm, limit is %.3fm", biped.ErrInfeasibleStep, travel, p.cfg.MaxSwingDistance)
	}

	return s.Validate()
}

func horizontal(p math3d.Pose) math3d.Vector3 {
	return math3d.Horizontal(p.Position)
}
