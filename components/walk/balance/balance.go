package balance

import (
	"fmt"
	"math"
	"sort"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/walk/gait"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "balance",
})

// Controller turns the difference between the measured and nominal torso
// orientation into a correction. Implementations keep no state of their own;
// everything they need between ticks is in the BalanceState.
//
// A stale frame yields ErrSensorStale, and a robot which has been tilted too
// far for too long yields ErrInstabilityDetected. In both cases the correction
// is still usable.
type Controller interface {
	Correct(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.Correction, biped.BalanceState, error)
}

type Factory func(cfg biped.BalanceConfig) Controller

var strategies = map[string]Factory{
	"ankle":    func(cfg biped.BalanceConfig) Controller { return &Ankle{estimator{cfg}} },
	"com":      func(cfg biped.BalanceConfig) Controller { return &Com{estimator{cfg}} },
	"hip":      func(cfg biped.BalanceConfig) Controller { return &Hip{estimator{cfg}} },
	"combined": func(cfg biped.BalanceConfig) Controller { return &Combined{estimator{cfg}} },
}

// Register makes a strategy available to New under the given name.
func Register(name string, f Factory) {
	strategies[name] = f
}

// Strategies returns the names of every registered strategy.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for k := range strategies {
		names = append(names, k)
	}

	sort.Strings(names)
	return names
}

// New returns the strategy named by the config.
func New(cfg biped.BalanceConfig) (Controller, error) {
	f, ok := strategies[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown balance strategy: %q (want one of %v)", cfg.Strategy, Strategies())
	}

	log.Infof("strategy=%s", cfg.Strategy)
	return f(cfg), nil
}

// estimator is shared by every strategy. It filters the gyro, remembers the
// last good tilt, and watches for falls.
type estimator struct {
	cfg biped.BalanceConfig
}

func (e estimator) estimate(n gait.Nominal, f biped.SensorFrame, st biped.BalanceState) (biped.BalanceState, error) {
	age := n.Time - f.Timestamp
	if age > e.cfg.StaleThreshold {
		return st, fmt.Errorf("%w: frame #%d is %.0fms old", biped.ErrSensorStale, f.Sequence, age*1000)
	}

	// A garbled frame is no better than an old one.
	if !finite(f.Orientation.Roll, f.Orientation.Pitch, f.Orientation.Yaw, f.AngularVelocity.X, f.AngularVelocity.Y, f.AngularVelocity.Z) {
		return st, fmt.Errorf("%w: frame #%d has non-finite values", biped.ErrSensorStale, f.Sequence)
	}

	a := e.cfg.GyroAlpha
	st.Gyro = f.AngularVelocity.Mul(a).Add(st.Gyro.Mul(1 - a))
	st.Tilt = f.Orientation
	st.Sequence = f.Sequence

	if math.Hypot(st.Tilt.Roll, st.Tilt.Pitch) > e.cfg.FallThreshold {
		st.OverThreshold++
	} else {
		st.OverThreshold = 0
	}

	if st.OverThreshold > e.cfg.FallTicks {
		return st, fmt.Errorf("%w: tilted %v for %d ticks", biped.ErrInstabilityDetected, st.Tilt, st.OverThreshold)
	}

	return st, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
