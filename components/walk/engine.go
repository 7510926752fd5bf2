package walk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/walk/balance"
	"github.com/adammck/biped/components/walk/gait"
	"github.com/adammck/biped/components/walk/planner"
	"github.com/adammck/biped/kinematics"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "walk",
})

// Report describes what happened during a tick, beyond the joint command.
type Report struct {

	// The step which finished during this tick, if any.
	Retired *biped.Step

	// Everything which went wrong but was recovered from, combined with
	// multierr. Nil if the tick was clean.
	Warnings error

	Instability  bool
	DeadlineMiss bool
}

// Engine turns walk commands and sensor frames into joint commands. It holds
// only configuration; all state is passed in and returned by Tick, so an
// Engine can be shared freely.
type Engine struct {
	cfg     biped.Config
	planner *planner.Planner
	gait    *gait.Generator
	balance balance.Controller
	legs    *kinematics.Leg

	// Clock measures the duration of each tick. Defaults to time.Now.
	Clock func() time.Time
}

// NewEngine returns an engine for the given config, which must be valid.
func NewEngine(cfg biped.Config) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	bal, err := balance.New(cfg.Balance)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		planner: planner.New(cfg.Step, cfg.Stance),
		gait:    gait.New(cfg.Gait),
		balance: bal,
		legs:    kinematics.New(cfg.Kinematics),
		Clock:   time.Now,
	}, nil
}

// NewState returns the initial state: standing still at the origin.
func (e *Engine) NewState() biped.WalkState {
	s := biped.NewWalkState(e.cfg.Stance)
	s.Height = e.cfg.Gait.WalkHeight
	return s
}

// Tick advances the walk by one control period. It never blocks and never
// fails; anything which goes wrong is recovered from and noted in the report.
func (e *Engine) Tick(state biped.WalkState, cmd biped.WalkCommand, frame biped.SensorFrame) (biped.JointCommand, biped.WalkState, Report) {
	start := e.Clock()
	rep := Report{}
	s := state.Clone()
	dt := e.cfg.Loop.Period

	s.Time += dt
	cmd = e.clampCommand(cmd)
	s.Velocity = e.limitVelocity(s.Velocity, cmd, dt)

	switch s.Mode {
	case biped.Idle:
		if cmd.Sit {
			s.StartTicks = 0
			e.setMode(&s, biped.Sitting)
			break
		}

		if cmd.IsZero() {
			s.StartTicks = 0
		} else {
			s.StartTicks++
		}

		if s.StartTicks >= e.cfg.Loop.StartTicks {
			e.start(&s, cmd, &rep)
		}

	case biped.Walking, biped.Stopping:
		a := s.Active
		if a == nil {
			rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("%v with no active step", s.Mode))
			e.setMode(&s, biped.Idle)
			break
		}

		done := a.Advance(dt)

		if !done && e.touchdown(s, frame) {
			log.Debugf("early touchdown of %s foot at %.0f%%", a.Step.Swing, 100*a.Phase/a.Step.Duration)
			done = true
		}

		if done {
			e.retire(&s, cmd, &rep)
		}

	case biped.Sitting:
		if e.lower(&s, cmd.Sit, dt) {
			e.setMode(&s, biped.Idle)
		}

	default:
		rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("invalid mode: %d", s.Mode))
		s.Mode = biped.Idle
	}

	nom := e.gait.Generate(s)

	corr, bal, err := e.balance.Correct(nom, frame, s.Balance)
	s.Balance = bal
	if err != nil {
		rep.Warnings = multierr.Append(rep.Warnings, err)
		if errors.Is(err, biped.ErrInstabilityDetected) {
			rep.Instability = true
			e.unstable(&s)
		}
	}

	// Timing corrections are relative to the planned duration, so they fade
	// out when the correction does. Steps cut short by instability are left
	// alone.
	if s.Mode == biped.Walking && s.Active != nil {
		d := utils.Clamp(s.Active.Step.Duration+corr.Timing, e.cfg.Step.MinDuration, e.cfg.Step.MaxDuration)
		s.Active.SetDuration(d)
	}

	out, err := e.joints(s, nom, corr)
	if err != nil {
		log.Warnf("reusing last joint command: %s", err)
		rep.Warnings = multierr.Append(rep.Warnings, err)
		out = s.LastJoints
	}
	e.stiffness(&out, s)
	s.LastJoints = out

	elapsed := e.Clock().Sub(start)
	if elapsed.Seconds() > dt {
		rep.DeadlineMiss = true
		rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("%w: tick took %v", biped.ErrDeadlineMiss, elapsed))
		s.Misses++
	} else {
		s.Misses = 0
	}

	return out, s, rep
}

func (e *Engine) setMode(s *biped.WalkState, m biped.Mode) {
	if s.Mode != m {
		log.Infof("mode=%v", m)
	}

	s.Mode = m
}

// clampCommand limits each component of the command to its configured range.
// Sitting overrides the velocity, so the walk stops first.
func (e *Engine) clampCommand(c biped.WalkCommand) biped.WalkCommand {
	if c.Sit {
		return biped.WalkCommand{Sit: true}
	}

	v := e.cfg.Velocity
	return biped.WalkCommand{
		Forward: utils.Clamp(c.Forward, v.MinForward, v.MaxForward),
		Lateral: utils.Clamp(c.Lateral, v.MinLateral, v.MaxLateral),
		Turn:    utils.Clamp(c.Turn, v.MinTurn, v.MaxTurn),
	}
}

// limitVelocity moves the velocity towards the command, no faster than the
// configured accelerations allow.
func (e *Engine) limitVelocity(cur, cmd biped.WalkCommand, dt float64) biped.WalkCommand {
	v := e.cfg.Velocity
	return biped.WalkCommand{
		Forward: cur.Forward + utils.ClampAbs(cmd.Forward-cur.Forward, v.MaxAccelForward*dt),
		Lateral: cur.Lateral + utils.ClampAbs(cmd.Lateral-cur.Lateral, v.MaxAccelLateral*dt),
		Turn:    cur.Turn + utils.ClampAbs(cmd.Turn-cur.Turn, v.MaxAccelTurn*dt),
	}
}

// lower moves the hips towards the sitting height if sit is set, or back up to
// the walking height if not. Returns true once they're all the way back up.
func (e *Engine) lower(s *biped.WalkState, sit bool, dt float64) bool {
	target := e.cfg.Gait.WalkHeight
	if sit {
		target = e.cfg.Gait.SitHeight
	}

	if s.Height == 0 {
		s.Height = e.cfg.Gait.WalkHeight
	}

	step := e.cfg.Gait.HeightRate * dt
	if math.Abs(target-s.Height) <= step {
		s.Height = target
	} else {
		s.Height += math.Copysign(step, target-s.Height)
	}

	return !sit && s.Height == e.cfg.Gait.WalkHeight
}

// start begins walking from a standstill.
func (e *Engine) start(s *biped.WalkState, cmd biped.WalkCommand, rep *Report) {
	f := planner.Standing(*s, planner.FirstSwing(cmd))
	s.Active = biped.NewActiveStep(e.plan(f, s.Velocity, rep))
	s.Support = f.Swing.Opposite()
	s.Queue = nil
	s.Com.Velocity = math3d.ZeroVector3
	s.StartTicks = 0
	e.refill(s, rep)
	e.setMode(s, biped.Walking)
}

// plan returns the next step from the given footing, or an in-place step if
// that isn't feasible.
func (e *Engine) plan(f planner.Footing, v biped.WalkCommand, rep *Report) biped.Step {
	step, err := e.planner.Plan(f, v)
	if err != nil {
		log.Warnf("stepping in place: %s", err)
		rep.Warnings = multierr.Append(rep.Warnings, err)
		return e.planner.InPlace(f)
	}

	return step
}

// refill plans steps until the queue is at the configured depth.
func (e *Engine) refill(s *biped.WalkState, rep *Report) {
	for len(s.Queue) < e.cfg.Loop.QueueDepth {
		last := s.Active.Step
		if len(s.Queue) > 0 {
			last = s.Queue[len(s.Queue)-1]
		}

		s.Queue = append(s.Queue, e.plan(planner.After(last), s.Velocity, rep))
	}
}

// touchdown returns true if the swing foot has hit the ground late enough in
// the step that it can be considered done.
func (e *Engine) touchdown(s biped.WalkState, f biped.SensorFrame) bool {
	a := s.Active
	if s.Time-f.Timestamp > e.cfg.Balance.StaleThreshold {
		return false
	}

	if a.Phase < e.cfg.Step.MinStepDurationRatio*a.Step.Duration {
		return false
	}

	return f.Contact(a.Step.Swing, e.cfg.Step.ContactThreshold)
}

// retire finishes the active step: the swing foot becomes the support foot,
// and the center of mass reference carries on from exactly where it is. Then
// the next step is chosen.
func (e *Engine) retire(s *biped.WalkState, cmd biped.WalkCommand, rep *Report) {
	a := s.Active
	step := a.Step
	rep.Retired = &step

	// Where the swing foot actually is. Exactly on target unless the step was
	// cut short, in which case it's wherever the ground was found.
	foot := step.SwingTarget
	if a.Progress() < 1 {
		foot = e.gait.Generate(*s).Foot(step.Swing)
		foot.Position.Z = 0
	}

	s.Com = e.gait.Boundary(*s)
	s.SetFoot(step.Swing, foot)
	s.Support = step.Swing
	s.Origin = step.Target
	s.Active = nil

	log.Debugf("retired %v", step)

	switch {
	case s.Mode == biped.Stopping && step.Terminating:
		s.Queue = nil
		s.Com.Velocity = math3d.ZeroVector3
		s.Velocity = biped.WalkCommand{}
		e.setMode(s, biped.Idle)

	case s.Mode == biped.Stopping || cmd.IsZero():
		s.Queue = nil
		s.Active = biped.NewActiveStep(e.planner.Terminating(planner.After(step)))
		e.setMode(s, biped.Stopping)

	default:
		var next biped.Step
		if len(s.Queue) > 0 {
			next = s.Queue[0]
		} else {
			next = e.plan(planner.After(step), s.Velocity, rep)
		}

		// The rest of the queue is replanned at the current velocity.
		s.Active = biped.NewActiveStep(next)
		s.Queue = nil
		e.refill(s, rep)
	}
}

// unstable cuts the active step short and stops walking. The queue is kept
// until the step retires, since the center of mass is already heading for it.
func (e *Engine) unstable(s *biped.WalkState) {
	if s.Mode != biped.Walking {
		return
	}

	a := s.Active
	d := math.Max(a.Phase, a.Step.Duration*e.cfg.Step.TruncationRatio)
	if a.SetDuration(d) {
		log.Warnf("truncating step to %.3fs", a.Duration)
	}

	e.setMode(s, biped.Stopping)
}

// joints solves the legs for the nominal pose, then applies the balance
// correction and arm swing.
func (e *Engine) joints(s biped.WalkState, n gait.Nominal, c biped.Correction) (biped.JointCommand, error) {
	out := biped.JointCommand{}

	for _, side := range []biped.Side{biped.Left, biped.Right} {
		a, err := e.legs.Solve(side, n.Foot(side), n.Body)
		if err != nil {
			return out, err
		}

		a.HipPitch += c.HipPitch
		a.HipRoll += c.HipRoll

		// The ankle correction acts through whichever feet are on the ground.
		if !n.Stepping || side == n.Support {
			a.AnklePitch += c.AnklePitch
			a.AnkleRoll += c.AnkleRoll
		} else {
			a.AnklePitch += c.SwingAnklePitch
			a.AnkleRoll += c.SwingAnkleRoll
		}

		out.SetLeg(side, a.Array())
	}

	// Each arm swings with the opposite foot.
	for _, side := range []biped.Side{biped.Left, biped.Right} {
		foot := n.Body.Out(n.Foot(side.Opposite()))
		out.Position[biped.Shoulder(side)] = e.cfg.Gait.ArmRestPitch + (e.cfg.Gait.ArmSwingMultiplier * foot.Position.X)
	}

	return out, nil
}

func (e *Engine) stiffness(jc *biped.JointCommand, s biped.WalkState) {
	legs := e.cfg.Gait.WalkingStiffness
	switch s.Mode {
	case biped.Idle:
		legs = e.cfg.Gait.StandingStiffness
	case biped.Sitting:
		legs = e.cfg.Gait.StandingStiffness
		if s.Height == e.cfg.Gait.SitHeight {
			legs = e.cfg.Gait.SittingStiffness
		}
	}

	for j := 0; j < biped.NumJoints; j++ {
		jc.Stiffness[j] = legs
	}

	jc.Stiffness[biped.LShoulderPitch] = e.cfg.Gait.ArmStiffness
	jc.Stiffness[biped.RShoulderPitch] = e.cfg.Gait.ArmStiffness
}
