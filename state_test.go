package biped

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWalkState(t *testing.T) {
	s := NewWalkState(StanceConfig{Width: 0.1})

	assert.Equal(t, Idle, s.Mode)
	assert.Nil(t, s.Active)
	assert.Empty(t, s.Queue)
	assert.InDelta(t, +0.05, s.Left.Position.Y, 1e-12)
	assert.InDelta(t, -0.05, s.Right.Position.Y, 1e-12)
	assert.InDelta(t, 0.1, s.Left.Position.Distance(s.Right.Position), 1e-12)
}

func TestWalkStateClone(t *testing.T) {
	s := NewWalkState(StanceConfig{Width: 0.1})
	s.Active = NewActiveStep(Step{Duration: 0.25, Swing: Left})
	s.Queue = []Step{{Duration: 0.25, Swing: Right}}

	c := s.Clone()
	c.Active.Phase = 0.1
	c.Queue[0].Duration = 1
	c.Queue = append(c.Queue, Step{Duration: 0.3, Swing: Left})

	assert.Equal(t, 0.0, s.Active.Phase)
	assert.Equal(t, 0.25, s.Queue[0].Duration)
	assert.Len(t, s.Queue, 1)
}

func TestFoot(t *testing.T) {
	s := NewWalkState(StanceConfig{Width: 0.1})
	p := s.Foot(Right)
	p.Position.X = 1
	s.SetFoot(Right, p)

	assert.Equal(t, 1.0, s.Right.Position.X)
	assert.Equal(t, 0.0, s.Left.Position.X)
	assert.Equal(t, s.Right, s.Foot(Right))
}
