package biped

import (
	"errors"
)

var (
	// ErrInfeasibleStep is returned by the step planner when a step can't be
	// made to fit within the reach of the legs, even after clamping.
	ErrInfeasibleStep = errors.New("infeasible step")

	// ErrUnreachablePose is returned by the leg solver when a foot target is out
	// of reach, or would require a joint to exceed its limits.
	ErrUnreachablePose = errors.New("unreachable pose")

	// ErrSensorStale is a warning that the sensor frame was too old to use, so
	// the last good estimate was reused.
	ErrSensorStale = errors.New("sensor frame is stale")

	// ErrInstabilityDetected is reported when the torso has been tilted past the
	// fall threshold for too many consecutive ticks.
	ErrInstabilityDetected = errors.New("instability detected")

	// ErrDeadlineMiss is reported when a tick took longer than the control
	// period.
	ErrDeadlineMiss = errors.New("deadline miss")
)
