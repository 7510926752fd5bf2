package walk

import (
	"errors"
	"testing"
	"time"

	"github.com/adammck/biped"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixed biped.WalkCommand

func (f fixed) Command() biped.WalkCommand {
	return biped.WalkCommand(f)
}

// echo returns a fresh, level frame stamped with the walker's own clock.
type echo struct {
	w *Walker
}

func (e *echo) Frame() (biped.SensorFrame, bool) {
	if e.w == nil {
		return biped.SensorFrame{}, false
	}

	return biped.SensorFrame{Timestamp: e.w.State().Time}, true
}

type sink struct {
	got []biped.JointCommand
	err error
}

func (s *sink) Apply(jc biped.JointCommand) error {
	s.got = append(s.got, jc)
	return s.err
}

type recorder struct {
	modes []biped.Mode
}

func (r *recorder) Observe(s biped.WalkState, rep Report) {
	r.modes = append(r.modes, s.Mode)
}

func newWalker(t *testing.T, cfg biped.Config, cmd biped.WalkCommand) (*biped.Robot, *Walker, *sink, *recorder) {
	r := biped.NewRobot()
	e := testEngine(t, cfg)
	src := &echo{}
	out := &sink{}
	rec := &recorder{}

	w := NewWalker(r, e, fixed(cmd), src, out)
	src.w = w
	w.Observe(rec)
	r.Add(w)
	require.NoError(t, r.Boot())

	return r, w, out, rec
}

func TestWalkerTicks(t *testing.T) {
	r, w, out, rec := newWalker(t, biped.DefaultConfig(), biped.WalkCommand{Forward: 0.1})

	for i := 0; i < 50; i++ {
		require.NoError(t, r.Tick(time.Time{}))
	}

	assert.Len(t, out.got, 50)
	assert.Len(t, rec.modes, 50)
	assert.Equal(t, biped.Walking, w.State().Mode)
	assert.Equal(t, w.State().LastJoints, out.got[49])
	assert.Equal(t, w.State().Support, w.Support())
}

func TestWalkerStopsOnShutdown(t *testing.T) {
	r, w, _, rec := newWalker(t, biped.DefaultConfig(), biped.WalkCommand{Forward: 0.1})

	for i := 0; i < 50; i++ {
		require.NoError(t, r.Tick(time.Time{}))
	}
	require.Equal(t, biped.Walking, w.State().Mode)

	r.Shutdown = true
	for i := 0; i < 200 && w.State().Mode != biped.Idle; i++ {
		require.NoError(t, r.Tick(time.Time{}))
	}

	assert.Equal(t, biped.Idle, w.State().Mode)
	assert.Contains(t, rec.modes, biped.Stopping)
}

func TestWalkerShutsDownAfterMisses(t *testing.T) {
	cfg := biped.DefaultConfig()
	cfg.Loop.MaxDeadlineMisses = 3
	r, w, _, _ := newWalker(t, cfg, biped.WalkCommand{})
	w.engine.Clock = (&fakeClock{step: time.Second}).Now

	require.NoError(t, r.Tick(time.Time{}))
	require.NoError(t, r.Tick(time.Time{}))
	assert.False(t, r.Shutdown)

	require.NoError(t, r.Tick(time.Time{}))
	assert.True(t, r.Shutdown)
	assert.Equal(t, 3, w.State().Misses)
}

func TestWalkerSinkError(t *testing.T) {
	r, _, out, _ := newWalker(t, biped.DefaultConfig(), biped.WalkCommand{})
	out.err = errors.New("bus error")

	err := r.Tick(time.Time{})
	assert.EqualError(t, err, "bus error")
}

func TestWalkerWithoutSensors(t *testing.T) {
	r := biped.NewRobot()
	e := testEngine(t, biped.DefaultConfig())
	w := NewWalker(r, e, fixed{}, &echo{}, &sink{})

	// Frames start out stale once the clock moves on, but it still stands.
	for i := 0; i < 10; i++ {
		require.NoError(t, w.Tick(time.Time{}))
	}

	assert.Equal(t, biped.Idle, w.State().Mode)
	assert.Greater(t, w.State().LastJoints.Position[biped.LKnee], 0.0)
}
