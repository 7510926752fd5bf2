package sensors

import (
	"sync/atomic"

	"github.com/adammck/biped"
)

// Latest holds the most recent sensor frame. Publishing replaces whatever was
// there; nothing is queued, and neither side ever blocks. The zero value is
// empty and ready to use.
type Latest struct {
	frame atomic.Pointer[biped.SensorFrame]
}

// Publish makes f the latest frame.
func (l *Latest) Publish(f biped.SensorFrame) {
	l.frame.Store(&f)
}

// Frame returns the latest frame, or false if nothing has been published yet.
func (l *Latest) Frame() (biped.SensorFrame, bool) {
	f := l.frame.Load()
	if f == nil {
		return biped.SensorFrame{}, false
	}

	return *f, true
}
