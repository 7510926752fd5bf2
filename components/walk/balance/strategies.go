package balance

import (
	"math"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/walk/gait"
	"github.com/adammck/biped/math3d"
	"github.com/adammck/biped/utils"
)

// Ankle is a PD controller on the ankles: the tilt is the error and the
// filtered gyro its derivative.
type Ankle struct {
	estimator
}

func (a *Ankle) Correct(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.Correction, biped.BalanceState, error) {
	st, err := a.estimate(n, f, st)
	c := biped.Correction{}
	a.ankle(&c, st)
	a.level(&c, n, st)
	st.Last = c
	return c, st, err
}

func (e estimator) ankle(c *biped.Correction, st biped.BalanceState) {
	c.AnklePitch = utils.ClampAbs(-((e.cfg.AnkleGain * st.Tilt.Pitch) + (e.cfg.AnkleDamping * st.Gyro.Y)), e.cfg.MaxAnkleCorrection)
	c.AnkleRoll = utils.ClampAbs(-((e.cfg.AnkleGain * st.Tilt.Roll) + (e.cfg.AnkleDamping * st.Gyro.X)), e.cfg.MaxAnkleCorrection)
}

// Hip is the same controller as Ankle, but on the hip joints.
type Hip struct {
	estimator
}

func (h *Hip) Correct(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.Correction, biped.BalanceState, error) {
	st, err := h.estimate(n, f, st)
	c := biped.Correction{
		HipPitch: utils.ClampAbs(-((h.cfg.HipGain * st.Tilt.Pitch) + (h.cfg.HipDamping * st.Gyro.Y)), h.cfg.MaxHipCorrection),
		HipRoll:  utils.ClampAbs(-((h.cfg.HipGain * st.Tilt.Roll) + (h.cfg.HipDamping * st.Gyro.X)), h.cfg.MaxHipCorrection),
	}
	h.level(&c, n, st)
	st.Last = c
	return c, st, err
}

// Com shifts the center of mass reference away from the direction of lean,
// and shortens the step when leaning towards the swing foot (or lengthens it
// when leaning away), so the foot lands under the falling body.
type Com struct {
	estimator
}

func (m *Com) Correct(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.Correction, biped.BalanceState, error) {
	st, err := m.estimate(n, f, st)
	c := biped.Correction{}
	m.com(&c, n, st)
	m.level(&c, n, st)
	st.Last = c
	return c, st, err
}

func (e estimator) com(c *biped.Correction, n gait.Nominal, st biped.BalanceState) {

	// Positive pitch leans forwards, and positive roll leans to the right.
	local := math3d.MakeVector3(-e.cfg.ComGain*st.Tilt.Pitch, e.cfg.ComGain*st.Tilt.Roll, 0)
	offset := math3d.Pose{Heading: n.Body.Heading}.Matrix().Rotate(local)
	if norm := math.Hypot(offset.X, offset.Y); norm > e.cfg.MaxComOffset {
		offset = offset.Mul(e.cfg.MaxComOffset / norm)
	}
	c.ComOffset = offset

	if n.Stepping {
		toward := -st.Tilt.Roll * n.Swing.Sign()
		c.Timing = utils.ClampAbs(-e.cfg.TimingGain*toward, e.cfg.MaxTimingCorrection)
	}
}

// Combined applies both the ankle and center of mass strategies.
type Combined struct {
	estimator
}

func (m *Combined) Correct(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.Correction, biped.BalanceState, error) {
	st, err := m.estimate(n, f, st)
	c := biped.Correction{}
	m.ankle(&c, st)
	m.com(&c, n, st)
	m.level(&c, n, st)
	st.Last = c
	return c, st, err
}

// level tilts the swing foot against the torso tilt, so it stays parallel to
// the ground. The correction fades out towards the end of the step, so the
// foot lands flat in the body frame, and never moves faster than
// MaxLevelDelta per tick.
func (e estimator) level(c *biped.Correction, n gait.Nominal, st biped.BalanceState) {
	w := 0.0
	if n.Stepping {
		w = 1 - (1 / (1 + math.Exp(-e.cfg.FootLevelDecay*(n.Progress-e.cfg.FootLevelShift))))
		if w <= 0.05 {
			w = 0
		}
	}

	step := func(last, tilt float64) float64 {
		target := utils.ClampAbs(-tilt*e.cfg.FootLevelGain*w, e.cfg.MaxAnkleCorrection)
		return last + utils.ClampAbs(target-last, e.cfg.MaxLevelDelta)
	}

	c.SwingAnklePitch = step(st.Last.SwingAnklePitch, st.Tilt.Pitch)
	c.SwingAnkleRoll = step(st.Last.SwingAnkleRoll, st.Tilt.Roll)
}
