package walk

import (
	"time"

	"github.com/adammck/biped"
	"go.uber.org/multierr"
)

// CommandSource provides the desired walking velocity.
type CommandSource interface {
	Command() biped.WalkCommand
}

// SensorSource provides the most recent sensor frame, or false if there hasn't
// been one yet.
type SensorSource interface {
	Frame() (biped.SensorFrame, bool)
}

// JointSink sends joint commands to the actuators.
type JointSink interface {
	Apply(biped.JointCommand) error
}

// Observer is told about the outcome of every tick. It must not block.
type Observer interface {
	Observe(biped.WalkState, Report)
}

// Walker is the component which runs the engine once per tick, feeding it from
// the command and sensor sources and sending its output to the sink. It owns
// the walk state between ticks.
type Walker struct {
	robot   *biped.Robot
	engine  *Engine
	command CommandSource
	sensors SensorSource
	sink    JointSink

	observers []Observer
	maxMisses int
	state     biped.WalkState
}

func NewWalker(r *biped.Robot, e *Engine, c CommandSource, s SensorSource, j JointSink) *Walker {
	return &Walker{
		robot:     r,
		engine:    e,
		command:   c,
		sensors:   s,
		sink:      j,
		maxMisses: e.cfg.Loop.MaxDeadlineMisses,
		state:     e.NewState(),
	}
}

// Observe adds an observer, which will be called after every tick.
func (w *Walker) Observe(o Observer) {
	w.observers = append(w.observers, o)
}

// State returns the walk state as of the end of the last tick.
func (w *Walker) State() biped.WalkState {
	return w.state
}

// Support returns the side currently bearing weight.
func (w *Walker) Support() biped.Side {
	return w.state.Support
}

func (w *Walker) Boot() error {
	log.Infof("booting walker with %d observers", len(w.observers))
	return nil
}

// Tick runs the engine once. Once the robot is shutting down, the command is
// ignored and the walk is brought to a stop.
func (w *Walker) Tick(now time.Time) error {
	cmd := biped.WalkCommand{}
	if !w.robot.Shutdown {
		cmd = w.command.Command()
	}

	// With no frame the zero value goes in, and the engine treats it as stale.
	frame, _ := w.sensors.Frame()

	out, next, rep := w.engine.Tick(w.state, cmd, frame)
	w.state = next

	for _, err := range multierr.Errors(rep.Warnings) {
		log.Debugf("warning: %s", err)
	}

	if rep.DeadlineMiss {
		log.Errorf("missed deadline (%d in a row)", next.Misses)

		if next.Misses >= w.maxMisses && !w.robot.Shutdown {
			log.Errorf("missed %d deadlines, shutting down", next.Misses)
			w.robot.Shutdown = true
		}
	}

	for _, o := range w.observers {
		o.Observe(next, rep)
	}

	return w.sink.Apply(out)
}
