package voltage

import (
	"fmt"
	"time"

	"github.com/adammck/biped"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "voltage",
})

type HasVoltage interface {
	Voltage() (float64, error)
}

// VoltageCheck watches the battery through one of the servos. Running at low
// voltage for too long will damage the battery, so when it drops below the
// minimum the robot is asked to shut down.
type VoltageCheck struct {
	HasVoltage
	robot    *biped.Robot
	minimum  float64
	interval time.Duration
	t        time.Time
}

func New(r *biped.Robot, src HasVoltage, cfg biped.HardwareConfig) *VoltageCheck {
	return &VoltageCheck{
		HasVoltage: src,
		robot:      r,
		minimum:    cfg.MinVoltage,
		interval:   time.Duration(cfg.VoltageInterval * float64(time.Second)),
	}
}

// Boot checks the voltage once, and refuses to start on a flat battery.
func (vc *VoltageCheck) Boot() error {
	return vc.CheckVoltage(time.Now())
}

func (vc *VoltageCheck) Tick(now time.Time) error {
	if vc.NeedsVoltageCheck(now) {
		return vc.CheckVoltage(now)
	}

	return nil
}

// NeedsVoltageCheck returns true if it's been a while since we checked the
// voltage level.
func (vc *VoltageCheck) NeedsVoltageCheck(now time.Time) bool {
	return now.Sub(vc.t) >= vc.interval
}

// CheckVoltage fetches the voltage level, and returns an error if it's too
// low. In that case the robot is also told to shut down, so that it stops
// walking and powers off the servos as soon as possible.
func (vc *VoltageCheck) CheckVoltage(now time.Time) error {
	val, err := vc.Voltage()
	vc.t = now
	if err != nil {
		return fmt.Errorf("reading voltage: %w", err)
	}

	log.Debugf("voltage: %.2fv", val)

	if val < vc.minimum {
		log.Errorf("low voltage (%.2fv < %.2fv), shutting down", val, vc.minimum)
		vc.robot.Shutdown = true
		return fmt.Errorf("low voltage: %.2fv", val)
	}

	return nil
}
