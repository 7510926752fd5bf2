package controller

import (
	"io"
	"time"

	"github.com/adammck/biped"
	"github.com/adammck/biped/utils"
	"github.com/adammck/sixaxis"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "controller",
})

// Full deflection of a stick.
const stickMax = 127.0

// Controller turns the state of a Sixaxis gamepad into walk commands. The left
// stick walks (up is forward, sideways strafes) and the right stick turns. Down
// on the d-pad sits, and up stands again. At any time, pressing start shuts
// down the robot.
type Controller struct {
	robot *biped.Robot
	sa    *sixaxis.SA
	vel   biped.VelocityConfig
	start Latch
	sit   bool
}

func New(r *biped.Robot, rd io.Reader, vel biped.VelocityConfig) *Controller {
	return &Controller{
		robot: r,
		sa:    sixaxis.New(rd),
		vel:   vel,
	}
}

func (c *Controller) Boot() error {
	log.Info("reading controller")
	go c.sa.Run()
	return nil
}

func (c *Controller) Tick(now time.Time) error {
	if c.start.Run(c.sa.Start) {
		log.Info("pressed START, shutting down")
		c.robot.Shutdown = true
	}

	c.dpad(c.sa.Up > 0, c.sa.Down > 0)
	return nil
}

func (c *Controller) dpad(up, down bool) {
	switch {
	case down && !c.sit:
		log.Info("sitting")
		c.sit = true
	case up && c.sit:
		log.Info("standing")
		c.sit = false
	}
}

// Command returns the velocity selected by the sticks, and whether to sit.
func (c *Controller) Command() biped.WalkCommand {
	cmd := Sticks(
		float64(c.sa.LeftStick.X),
		float64(c.sa.LeftStick.Y),
		float64(c.sa.RightStick.X),
		c.vel)
	cmd.Sit = c.sit
	return cmd
}

// Sticks maps raw stick positions onto the velocity ranges. Stick axes are
// positive right and down, which is the opposite of the walk frame.
func Sticks(lx, ly, rx float64, v biped.VelocityConfig) biped.WalkCommand {
	return biped.WalkCommand{
		Forward: axis(-ly, v.MinForward, v.MaxForward),
		Lateral: axis(-lx, v.MinLateral, v.MaxLateral),
		Turn:    axis(-rx, v.MinTurn, v.MaxTurn),
	}
}

// axis scales a stick position to lo at full negative deflection and hi at
// full positive. Zero stays zero.
func axis(raw, lo, hi float64) float64 {
	f := utils.Clamp(raw/stickMax, -1, 1)
	if f < 0 {
		return -f * lo
	}

	return f * hi
}
