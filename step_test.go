package biped

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepValidate(t *testing.T) {
	type eg struct {
		step Step
		ok   bool
	}

	examples := []eg{
		{Step{Duration: 0.25, Apex: 0.01, Swing: Left}, true},
		{Step{Duration: 0.25, Apex: 0, Swing: Right}, true},
		{Step{Duration: 0, Apex: 0.01, Swing: Left}, false},
		{Step{Duration: -1, Apex: 0.01, Swing: Left}, false},
		{Step{Duration: 0.25, Apex: -0.01, Swing: Left}, false},
		{Step{Duration: 0.25, Apex: 0.01, Swing: Side(7)}, false},
	}

	for i, x := range examples {
		err := x.step.Validate()
		if x.ok {
			assert.NoError(t, err, "example %d", i+1)
		} else {
			assert.Error(t, err, "example %d", i+1)
		}
	}
}

func TestActiveStepProgress(t *testing.T) {
	a := NewActiveStep(Step{Duration: 0.2, Swing: Left})
	assert.Equal(t, 0.0, a.Progress())

	a.Advance(0.05)
	assert.InDelta(t, 0.25, a.Progress(), 1e-9)

	// Stretching the step keeps the progress where it was, and spreads the rest
	// over the remaining time.
	assert.True(t, a.SetDuration(0.35))
	assert.InDelta(t, 0.25, a.Progress(), 1e-9)

	a.Advance(0.15)
	assert.InDelta(t, 0.625, a.Progress(), 1e-9)

	// Past halfway through the planned duration, the step is locked.
	assert.False(t, a.SetDuration(0.2))
	assert.Equal(t, 0.35, a.Duration)

	done := a.Advance(1)
	assert.True(t, done)
	assert.Equal(t, 0.35, a.Phase)
	assert.Equal(t, 1.0, a.Progress())
}

func TestActiveStepTruncate(t *testing.T) {
	a := NewActiveStep(Step{Duration: 0.2, Swing: Right})
	a.Advance(0.09)

	// Never below the current phase.
	assert.True(t, a.SetDuration(0.01))
	assert.InDelta(t, 0.09, a.Duration, 1e-12)
	assert.Equal(t, 1.0, a.Progress())
	assert.True(t, a.Advance(0.01))
}

func TestActiveStepSetDurationNonFinite(t *testing.T) {
	a := NewActiveStep(Step{Duration: 0.2, Swing: Left})
	a.Advance(0.05)

	for _, d := range []float64{math.NaN(), math.Inf(+1), math.Inf(-1)} {
		assert.False(t, a.SetDuration(d), "%v", d)
		assert.Equal(t, 0.2, a.Duration, "%v", d)
		assert.InDelta(t, 0.25, a.Progress(), 1e-12, "%v", d)
	}
}
