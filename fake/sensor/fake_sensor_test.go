package sensor

import (
	"testing"
	"time"

	"github.com/adammck/biped"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walk struct {
	s biped.WalkState
}

func (w *walk) State() biped.WalkState {
	return w.s
}

func TestFrame(t *testing.T) {
	w := &walk{s: biped.NewWalkState(biped.DefaultConfig().Stance)}
	s := New(w, &sensors.Latest{}, 40)

	examples := []struct {
		mode    biped.Mode
		support biped.Side
		active  bool
		left    float64
		right   float64
	}{
		{biped.Idle, biped.Left, false, 20, 20},
		{biped.Walking, biped.Left, true, 40, 0},
		{biped.Walking, biped.Right, true, 0, 40},
		{biped.Stopping, biped.Right, true, 0, 40},
	}

	for i, eg := range examples {
		w.s.Mode = eg.mode
		w.s.Support = eg.support
		w.s.Time = float64(i) * 0.01
		w.s.Active = nil
		if eg.active {
			w.s.Active = biped.NewActiveStep(biped.Step{Swing: eg.support.Opposite(), Duration: 0.25})
		}

		f := s.Frame()
		assert.Equal(t, uint64(i+1), f.Sequence)
		assert.Equal(t, w.s.Time, f.Timestamp)
		assert.Equal(t, eg.left, f.FootPressure[biped.Left], "example %d", i)
		assert.Equal(t, eg.right, f.FootPressure[biped.Right], "example %d", i)
		assert.Equal(t, math3d.EulerAngles{}, f.Orientation)
	}
}

func TestTickPublishes(t *testing.T) {
	w := &walk{s: biped.NewWalkState(biped.DefaultConfig().Stance)}
	w.s.LastJoints.Position[biped.LKnee] = 0.5
	out := &sensors.Latest{}
	s := New(w, out, 40)

	require.NoError(t, s.Boot())
	require.NoError(t, s.Tick(time.Time{}))

	f, ok := out.Frame()
	require.True(t, ok)
	assert.Equal(t, uint64(1), f.Sequence)
	assert.Equal(t, 0.5, f.Encoders[biped.LKnee])
}
