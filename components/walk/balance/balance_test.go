package balance

import (
	"errors"
	"math"
	"testing"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/walk/gait"
	"github.com/adammck/biped/math3d"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t float64, roll, pitch float64) biped.SensorFrame {
	return biped.SensorFrame{
		Timestamp:   t,
		Orientation: math3d.EulerAngles{Roll: roll, Pitch: pitch},
	}
}

func controller(t *testing.T, name string) (Controller, biped.BalanceConfig) {
	cfg := biped.DefaultConfig().Balance
	cfg.Strategy = name
	c, err := New(cfg)
	require.NoError(t, err)
	return c, cfg
}

func TestNew(t *testing.T) {
	assert.Equal(t, []string{"ankle", "com", "combined", "hip"}, Strategies())

	for _, name := range Strategies() {
		cfg := biped.DefaultConfig().Balance
		cfg.Strategy = name
		c, err := New(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, c)
	}

	cfg := biped.DefaultConfig().Balance
	cfg.Strategy = "magic"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestZeroErrorZeroCorrection(t *testing.T) {
	for _, name := range Strategies() {
		c, _ := controller(t, name)
		n := gait.Nominal{Time: 1, Stepping: true, Swing: biped.Left, Support: biped.Right}

		out, _, err := c.Correct(n, frame(1, 0, 0), biped.BalanceState{})
		assert.NoError(t, err, name)
		assert.Equal(t, biped.Correction{}, out, name)
	}
}

func TestCorrectionsClamped(t *testing.T) {
	huge := []biped.SensorFrame{
		{Orientation: math3d.EulerAngles{Roll: 100, Pitch: -100}, AngularVelocity: math3d.MakeVector3(1e6, -1e6, 0)},
		{Orientation: math3d.EulerAngles{Roll: -3, Pitch: 3}, AngularVelocity: math3d.MakeVector3(-1e3, 1e3, 1e3)},
		{Orientation: math3d.EulerAngles{Roll: 1e9, Pitch: 1e9}},
		{Orientation: math3d.EulerAngles{Roll: 1e200, Pitch: 1e200}},
	}

	for _, name := range Strategies() {
		c, cfg := controller(t, name)

		for i, f := range huge {
			for _, side := range []biped.Side{biped.Left, biped.Right} {
				n := gait.Nominal{Stepping: true, Swing: side, Support: side.Opposite(), Body: math3d.Pose{Heading: 0.8}}
				out, st, _ := c.Correct(n, f, biped.BalanceState{})

				assert.LessOrEqual(t, math.Abs(out.AnklePitch), cfg.MaxAnkleCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.AnkleRoll), cfg.MaxAnkleCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.HipPitch), cfg.MaxHipCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.HipRoll), cfg.MaxHipCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, out.ComOffset.Norm(), cfg.MaxComOffset+1e-12, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.Timing), cfg.MaxTimingCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.SwingAnklePitch), cfg.MaxAnkleCorrection, "%s %d", name, i+1)
				assert.LessOrEqual(t, math.Abs(out.SwingAnkleRoll), cfg.MaxAnkleCorrection, "%s %d", name, i+1)
				assert.Equal(t, out, st.Last)

				// The offset is saturated, not lost to overflow.
				if name == "com" || name == "combined" {
					assert.InDelta(t, cfg.MaxComOffset, math.Hypot(out.ComOffset.X, out.ComOffset.Y), 1e-12, "%s %d", name, i+1)
				}
			}
		}
	}
}

func TestCorrectionDirection(t *testing.T) {
	c, _ := controller(t, "combined")
	n := gait.Nominal{Stepping: true, Swing: biped.Left, Support: biped.Right}

	// Leaning forwards: push back with the ankles, and move the center of mass
	// backwards.
	out, _, err := c.Correct(n, frame(0, 0, 0.1), biped.BalanceState{})
	require.NoError(t, err)
	assert.Less(t, out.AnklePitch, 0.0)
	assert.Less(t, out.ComOffset.X, 0.0)
	assert.InDelta(t, 0, out.ComOffset.Y, 1e-12)

	// Leaning left, towards the swing foot: put it down sooner.
	out, _, err = c.Correct(n, frame(0, -0.1, 0), biped.BalanceState{})
	require.NoError(t, err)
	assert.Less(t, out.Timing, 0.0)
	assert.Less(t, out.ComOffset.Y, 0.0)

	// Leaning right, away from it: hold it up longer.
	out, _, err = c.Correct(n, frame(0, 0.1, 0), biped.BalanceState{})
	require.NoError(t, err)
	assert.Greater(t, out.Timing, 0.0)

	// No timing correction while standing.
	n.Stepping = false
	out, _, err = c.Correct(n, frame(0, 0.1, 0), biped.BalanceState{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Timing)
}

func TestGyroFilter(t *testing.T) {
	c, cfg := controller(t, "ankle")
	n := gait.Nominal{}
	f := frame(0, 0, 0)
	f.AngularVelocity = math3d.MakeVector3(1, 2, 0)

	st := biped.BalanceState{}
	_, st, _ = c.Correct(n, f, st)
	assert.InDelta(t, cfg.GyroAlpha, st.Gyro.X, 1e-12)
	assert.InDelta(t, cfg.GyroAlpha*2, st.Gyro.Y, 1e-12)

	_, st, _ = c.Correct(n, f, st)
	a := cfg.GyroAlpha
	assert.InDelta(t, a+(1-a)*a, st.Gyro.X, 1e-12)
}

func TestInstability(t *testing.T) {
	c, cfg := controller(t, "combined")
	n := gait.Nominal{}
	st := biped.BalanceState{}
	tilted := frame(0, 0, cfg.FallThreshold+0.1)

	for i := 1; i <= cfg.FallTicks; i++ {
		var err error
		_, st, err = c.Correct(n, tilted, st)
		assert.NoError(t, err, "tick %d", i)
	}

	_, st, err := c.Correct(n, tilted, st)
	assert.True(t, errors.Is(err, biped.ErrInstabilityDetected), "%v", err)

	_, st, err = c.Correct(n, tilted, st)
	assert.True(t, errors.Is(err, biped.ErrInstabilityDetected), "%v", err)

	// Recovering resets the count.
	_, st, err = c.Correct(n, frame(0, 0, 0), st)
	assert.NoError(t, err)
	assert.Equal(t, 0, st.OverThreshold)
}

func TestStaleFrame(t *testing.T) {
	c, cfg := controller(t, "ankle")
	st := biped.BalanceState{}

	fresh := frame(1.0, 0.05, 0.6)
	fresh.Sequence = 7
	n := gait.Nominal{Time: 1.0}
	out1, st, err := c.Correct(n, fresh, st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.OverThreshold)

	// A frame from long ago is ignored, and the last estimate reused.
	old := frame(0.5, -0.3, -0.3)
	old.Sequence = 3
	n.Time = 1.0 + cfg.StaleThreshold + 0.01
	out2, st, err := c.Correct(n, old, st)
	assert.True(t, errors.Is(err, biped.ErrSensorStale), "%v", err)
	assert.Equal(t, out1, out2)
	assert.Equal(t, uint64(7), st.Sequence)
	assert.Equal(t, 0.6, st.Tilt.Pitch)
	assert.Equal(t, 1, st.OverThreshold)
}

func TestNonFiniteFrame(t *testing.T) {
	bad := []float64{math.NaN(), math.Inf(+1), math.Inf(-1)}

	for _, name := range Strategies() {
		c, _ := controller(t, name)
		n := gait.Nominal{Time: 1.0, Swing: biped.Left, Support: biped.Right}

		good := frame(1.0, 0.02, -0.03)
		good.Sequence = 4
		exp, st0, err := c.Correct(n, good, biped.BalanceState{})
		require.NoError(t, err)

		for _, v := range bad {
			for i := 0; i < 5; i++ {
				f := frame(1.0, 0, 0)
				f.Sequence = 5
				switch i {
				case 0:
					f.Orientation.Roll = v
				case 1:
					f.Orientation.Pitch = v
				case 2:
					f.AngularVelocity.X = v
				case 3:
					f.AngularVelocity.Y = v
				case 4:
					f.AngularVelocity.Z = v
				}

				out, st, err := c.Correct(n, f, st0)
				assert.True(t, errors.Is(err, biped.ErrSensorStale), "%s %v #%d: %v", name, v, i, err)
				assert.Equal(t, exp, out, "%s %v #%d", name, v, i)
				assert.Equal(t, uint64(4), st.Sequence)
				assert.Equal(t, st0.Tilt, st.Tilt)
				assert.Equal(t, st0.Gyro, st.Gyro)

				for _, x := range []float64{out.AnklePitch, out.AnkleRoll, out.HipPitch, out.HipRoll, out.ComOffset.X, out.ComOffset.Y, out.Timing, out.SwingAnklePitch, out.SwingAnkleRoll} {
					assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s %v #%d", name, v, i)
				}
			}
		}
	}
}

func TestFootLevel(t *testing.T) {
	for _, name := range Strategies() {
		c, cfg := controller(t, name)

		// Leaning forwards and right, early in the step: the swing foot tips
		// up and left, but no faster than the delta allows.
		n := gait.Nominal{Stepping: true, Progress: 0.1, Swing: biped.Left, Support: biped.Right}
		out, st, err := c.Correct(n, frame(0, 0.1, 0.1), biped.BalanceState{})
		require.NoError(t, err)
		assert.InDelta(t, -cfg.MaxLevelDelta, out.SwingAnklePitch, 1e-12, name)
		assert.InDelta(t, -cfg.MaxLevelDelta, out.SwingAnkleRoll, 1e-12, name)

		// Held long enough, it settles on the target.
		for i := 0; i < 100; i++ {
			out, st, err = c.Correct(n, frame(0, 0.1, 0.1), st)
			require.NoError(t, err)
		}
		w := 1 - (1 / (1 + math.Exp(-cfg.FootLevelDecay*(0.1-cfg.FootLevelShift))))
		assert.InDelta(t, -0.1*cfg.FootLevelGain*w, out.SwingAnklePitch, 1e-12, name)

		// Late in the step it fades back out, one delta at a time.
		n.Progress = 0.95
		prev := out.SwingAnklePitch
		out, st, err = c.Correct(n, frame(0, 0.1, 0.1), st)
		require.NoError(t, err)
		assert.InDelta(t, prev+cfg.MaxLevelDelta, out.SwingAnklePitch, 1e-12, name)

		for i := 0; i < 100; i++ {
			out, st, err = c.Correct(n, frame(0, 0.1, 0.1), st)
			require.NoError(t, err)
		}
		assert.Equal(t, 0.0, out.SwingAnklePitch, name)
		assert.Equal(t, 0.0, out.SwingAnkleRoll, name)

		// And not at all while standing.
		out, _, err = c.Correct(gait.Nominal{}, frame(0, 0.1, 0.1), biped.BalanceState{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, out.SwingAnklePitch, name)
	}
}
