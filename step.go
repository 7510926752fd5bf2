package biped

import (
	"fmt"
	"math"

	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
)

// Step is a single planned step: one foot swings from SwingStart to
// SwingTarget while the other stays planted, and the walk frame moves from
// Origin to Target. Steps are never modified once planned.
type Step struct {

	// Displacement of the walk frame, relative to Origin.
	Forward float64
	Lateral float64
	Turn    float64

	// Planned duration (seconds), and the height to which the swing foot is
	// lifted halfway through.
	Duration float64
	Apex     float64

	Swing Side

	Origin math3d.Pose
	Target math3d.Pose

	SupportStart math3d.Pose
	SwingStart   math3d.Pose
	SwingTarget  math3d.Pose

	// Terminating steps return the swing foot beside the support foot, leaving
	// the robot standing in a symmetric stance.
	Terminating bool
}

func (s Step) String() string {
	return fmt.Sprintf("Step{%s f=%+.3f l=%+.3f t=%+.2f° d=%.3fs apex=%.3f term=%v}", s.Swing, s.Forward, s.Lateral, utils.Deg(s.Turn), s.Duration, s.Apex, s.Terminating)
}

// Support returns the side of the foot which stays planted.
func (s Step) Support() Side {
	return s.Swing.Opposite()
}

// Validate returns an error if the step is malformed.
func (s Step) Validate() error {
	if !(s.Duration > 0) {
		return fmt.Errorf("step duration must be positive, got %v", s.Duration)
	}

	if !(s.Apex >= 0) {
		return fmt.Errorf("step apex must not be negative, got %v", s.Apex)
	}

	if !s.Swing.Valid() {
		return fmt.Errorf("invalid swing side: %d", s.Swing)
	}

	return nil
}

// ActiveStep is the step currently being executed, plus its timing. Duration
// starts out equal to Step.Duration, and can be changed (by balance timing or
// truncation) only during the first half of the step.
type ActiveStep struct {
	Step     Step
	Phase    float64
	Duration float64

	// The phase and progress at which the duration was last changed. Progress
	// is continued linearly from this point, so that changing the duration
	// never makes the trajectory jump.
	WarpPhase    float64
	WarpProgress float64
}

// NewActiveStep begins executing the given step.
func NewActiveStep(s Step) *ActiveStep {
	return &ActiveStep{
		Step:     s,
		Duration: s.Duration,
	}
}

// Progress returns the normalized progress through the step, in [0, 1].
func (a ActiveStep) Progress() float64 {
	remaining := a.Duration - a.WarpPhase
	if remaining <= 0 || a.Phase >= a.Duration {
		return 1
	}

	p := a.WarpProgress + ((a.Phase - a.WarpPhase) * (1 - a.WarpProgress) / remaining)
	return utils.Clamp(p, 0, 1)
}

// Adjustable returns true if the duration may still be changed.
func (a ActiveStep) Adjustable() bool {
	return a.Phase < a.Step.Duration/2
}

// SetDuration changes the duration of the step, never below the current phase.
// Returns false (and does nothing) if the step is no longer adjustable, or if
// d isn't a number.
func (a *ActiveStep) SetDuration(d float64) bool {
	if !a.Adjustable() || math.IsNaN(d) || math.IsInf(d, 0) {
		return false
	}

	d = math.Max(d, a.Phase)
	if d == a.Duration {
		return true
	}

	a.WarpProgress = a.Progress()
	a.WarpPhase = a.Phase
	a.Duration = d
	return true
}

// Advance moves the phase forwards by dt, stopping at the duration. Returns
// true once the step is complete.
func (a *ActiveStep) Advance(dt float64) bool {
	a.Phase = math.Min(a.Phase+dt, a.Duration)
	return a.Phase >= a.Duration
}
