package servos

import (
	"fmt"

	"github.com/adammck/biped"
	"github.com/adammck/biped/utils"
	"github.com/adammck/dynamixel/network"
	"github.com/adammck/dynamixel/servo"
	"github.com/adammck/dynamixel/servo/ax"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "servos",
})

// Pool drives one servo per joint over a Dynamixel network.
type Pool struct {
	n      *network.Network
	servos [biped.NumJoints]*servo.Servo
	torque [biped.NumJoints]bool
}

// New sets up the servo for each joint, by ID. If any of them fail, the ones
// which were already set up are powered down again.
func New(n *network.Network, ids [biped.NumJoints]int) (*Pool, error) {
	p := &Pool{n: n}

	for j, id := range ids {
		s, err := open(n, id)
		if s != nil {
			p.servos[j] = s
		}
		if err != nil {
			p.Shutdown()
			return nil, fmt.Errorf("servo #%d (%v): %w", id, biped.Joint(j), err)
		}

		p.torque[j] = true
	}

	return p, nil
}

// open returns a servo (with sensible defaults). The servo is returned even on
// error once it has answered a ping, so that it can be powered down.
func open(n *network.Network, ID int) (*servo.Servo, error) {
	s, err := ax.New(n, ID)
	if err != nil {
		return nil, err
	}

	// Don't bother sending ACKs for writes. We must do this first, to ensure
	// that the servos are in the expected state before sending other commands.
	err = s.SetReturnLevel(1)
	if err != nil {
		return nil, fmt.Errorf("setting return level: %w", err)
	}

	err = s.Ping()
	if err != nil {
		return nil, fmt.Errorf("pinging: %w", err)
	}

	err = s.SetReturnDelayTime(0)
	if err != nil {
		return s, fmt.Errorf("setting return delay: %w", err)
	}

	err = s.SetTorqueEnable(true)
	if err != nil {
		return s, fmt.Errorf("enabling torque: %w", err)
	}

	err = s.SetMovingSpeed(1023)
	if err != nil {
		return s, fmt.Errorf("setting move speed: %w", err)
	}

	// Buffer all subsequent instructions. The ACTION command is issued at the
	// end of each Apply.
	s.SetBuffered(true)

	return s, nil
}

// ByID returns the servo with the given ID, or nil if it isn't in the pool.
func (p *Pool) ByID(id int) *servo.Servo {
	for _, s := range p.servos {
		if s != nil && s.ID == id {
			return s
		}
	}

	return nil
}

// Apply moves every joint at once. A joint with zero stiffness goes limp.
func (p *Pool) Apply(jc biped.JointCommand) error {
	utils.Sync(p.n, func() {
		for j, s := range p.servos {
			on := Torque(jc.Stiffness[j])
			if on != p.torque[j] {
				log.Debugf("%v torque=%v", biped.Joint(j), on)
				s.SetTorqueEnable(on)
				p.torque[j] = on
			}

			if on {
				s.MoveTo(utils.Deg(jc.Position[j]))
			}
		}
	})

	return nil
}

// Torque returns whether a joint with the given stiffness should hold its
// position at all. AX servos can't be made softer without tuning their
// compliance slopes, so anything above zero holds.
func Torque(stiffness float64) bool {
	return stiffness > 0
}

// Shutdown powers off all servos in the pool. This should be called before
// terminating the program, to ensure that servos don't stay powered up
// indefinitely.
func (p *Pool) Shutdown() {
	for j, s := range p.servos {
		if s == nil {
			continue
		}

		s.SetTorqueEnable(false)
		s.SetLED(false)
		p.torque[j] = false
	}
}
