package biped

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "biped",
})

// Robot owns the components which make up the running system, and ticks them
// in the order that they were added.
type Robot struct {
	Components []Component

	// Components can set this to true to indicate that the robot should stop
	// walking and power down.
	Shutdown bool
}

type Component interface {
	Boot() error
	Tick(time.Time) error
}

// NewRobot creates a new Robot with no components.
func NewRobot() *Robot {
	return &Robot{
		Components: []Component{},
	}
}

// Add registers a component to receive ticks every frame.
func (r *Robot) Add(c Component) {
	r.Components = append(r.Components, c)
}

// Boot calls Boot on each component, stopping at the first failure.
func (r *Robot) Boot() error {
	for _, c := range r.Components {
		err := c.Boot()
		if err != nil {
			return err
		}
	}

	return nil
}

// Tick calls Tick on each component. A failing component doesn't prevent the
// rest from being ticked; all of the errors are returned together.
func (r *Robot) Tick(now time.Time) error {
	var errs error

	for _, c := range r.Components {
		err := c.Tick(now)
		if err != nil {
			log.Warnf("tick: %s", err)
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
