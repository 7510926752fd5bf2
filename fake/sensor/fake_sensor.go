package sensor

import (
	"time"

	"github.com/adammck/biped"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "fake/sensor",
})

// Walk is whatever owns the walk state; usually a walk.Walker.
type Walk interface {
	State() biped.WalkState
}

type Publisher interface {
	Publish(biped.SensorFrame)
}

// FakeSensor pretends to be an IMU and a pair of foot pressure sensors on a
// robot which never wobbles. The body is level, the weight is on the support
// foot (or both feet when standing), and the encoders read back whatever was
// last commanded. It must be ticked before the walker, so that each frame is
// fresh when the walker reads it.
type FakeSensor struct {
	walk   Walk
	out    Publisher
	weight float64
	seq    uint64
}

// New returns a fake sensor which reports the given weight (in the same units
// as the contact threshold) on the feet.
func New(w Walk, out Publisher, weight float64) *FakeSensor {
	return &FakeSensor{
		walk:   w,
		out:    out,
		weight: weight,
	}
}

func (s *FakeSensor) Boot() error {
	log.Info("using fake sensors")
	return nil
}

func (s *FakeSensor) Tick(now time.Time) error {
	s.out.Publish(s.Frame())
	return nil
}

// Frame returns the next frame, stamped with the walk's own clock.
func (s *FakeSensor) Frame() biped.SensorFrame {
	st := s.walk.State()
	s.seq++

	f := biped.SensorFrame{
		Sequence:  s.seq,
		Timestamp: st.Time,
		Encoders:  st.LastJoints.Position,
	}

	if st.Mode == biped.Idle || st.Active == nil {
		f.FootPressure[biped.Left] = s.weight / 2
		f.FootPressure[biped.Right] = s.weight / 2
	} else {
		f.FootPressure[st.Support] = s.weight
	}

	return f
}
