package servos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTorque(t *testing.T) {
	examples := []struct {
		stiffness float64
		exp       bool
	}{
		{0, false},
		{-1, false},
		{0.01, true},
		{0.8, true},
		{1, true},
	}

	for _, eg := range examples {
		assert.Equal(t, eg.exp, Torque(eg.stiffness), "%v", eg.stiffness)
	}
}

func TestByIDEmpty(t *testing.T) {
	p := &Pool{}
	assert.Nil(t, p.ByID(1))
}
