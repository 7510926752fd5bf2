package biped

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestReadConfig(t *testing.T) {
	r := strings.NewReader(`
[step]
nominal_duration = 0.3
max_forward = 0.04

[balance]
strategy = "ankle"
`)

	cfg, err := ReadConfig(r)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Step.NominalDuration)
	assert.Equal(t, 0.04, cfg.Step.MaxForward)
	assert.Equal(t, "ankle", cfg.Balance.Strategy)

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.Step.MinDuration, cfg.Step.MinDuration)
	assert.Equal(t, def.Stance, cfg.Stance)
	assert.Equal(t, def.Hardware, cfg.Hardware)
}

func TestReadConfigUnknownKey(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("[step]\nbogus = 1\n"))
	assert.Error(t, err)
}

func TestReadConfigInvalid(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("[loop]\nperiod = 0\n"))
	assert.EqualError(t, err, "loop.period must be positive")
}

func TestValidateTruncationRatio(t *testing.T) {
	type eg struct {
		ratio float64
		ok    bool
	}

	examples := []eg{
		{0.3, false},
		{0.5, false},
		{0.51, true},
		{1.0, true},
		{1.1, false},
	}

	for _, eg := range examples {
		cfg := DefaultConfig()
		cfg.Step.TruncationRatio = eg.ratio
		err := cfg.Validate()
		if eg.ok {
			assert.NoError(t, err, "%v", eg.ratio)
		} else {
			assert.EqualError(t, err, "step.truncation_ratio must be within (0.5, 1]", "%v", eg.ratio)
		}
	}
}

func TestValidateSitHeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gait.SitHeight = cfg.Gait.WalkHeight + 0.01
	cfg.Gait.HeightRate = 0

	errs := multierr.Errors(cfg.Validate())
	assert.Len(t, errs, 2)
}

func TestValidateCombinesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loop.Period = -1
	cfg.Stance.MinWidth = 1
	cfg.Balance.GyroAlpha = 0

	errs := multierr.Errors(cfg.Validate())
	assert.Len(t, errs, 3)
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Balance.Strategy = "hip"
	cfg.Step.MaxTurn = 0.25

	b := &bytes.Buffer{}
	require.NoError(t, cfg.Encode(b))

	out, err := ReadConfig(b)
	require.NoError(t, err)
	assert.Equal(t, cfg, out)
}
