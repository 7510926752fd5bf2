package servos

import (
	"github.com/adammck/biped"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "fake/servos",
})

// FakeServos accepts joint commands and remembers the last one, for running
// the walk without any hardware attached.
type FakeServos struct {
	Last  biped.JointCommand
	Count int
}

func New() *FakeServos {
	return &FakeServos{}
}

func (s *FakeServos) Apply(jc biped.JointCommand) error {
	s.Last = jc
	s.Count++

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		for j := biped.Joint(0); int(j) < biped.NumJoints; j++ {
			log.Debugf("%s: %+.3f (%.2f)", j, jc.Position[j], jc.Stiffness[j])
		}
	}

	return nil
}
