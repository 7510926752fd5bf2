package biped

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
)

// Config holds every tunable parameter of the walk. Lengths are in metres,
// angles in radians, and times in seconds.
type Config struct {
	Loop       LoopConfig       `toml:"loop"`
	Step       StepConfig       `toml:"step"`
	Velocity   VelocityConfig   `toml:"velocity"`
	Stance     StanceConfig     `toml:"stance"`
	Gait       GaitConfig       `toml:"gait"`
	Balance    BalanceConfig    `toml:"balance"`
	Kinematics KinematicsConfig `toml:"kinematics"`
	Hardware   HardwareConfig   `toml:"hardware"`
}

type LoopConfig struct {

	// The control period. Each tick advances the engine clock by this much.
	Period float64 `toml:"period"`

	// The walker asks the robot to shut down after this many consecutive ticks
	// overrun the period.
	MaxDeadlineMisses int `toml:"max_deadline_misses"`

	// Consecutive non-zero commands needed to start walking.
	StartTicks int `toml:"start_ticks"`

	// Number of steps planned beyond the active one.
	QueueDepth int `toml:"queue_depth"`
}

type StepConfig struct {
	NominalDuration float64 `toml:"nominal_duration"`
	MinDuration     float64 `toml:"min_duration"`
	MaxDuration     float64 `toml:"max_duration"`

	// Seconds added to the duration for a full-size step.
	DurationModifier float64 `toml:"duration_modifier"`

	// Largest displacement of the walk frame in a single step.
	MaxForward float64 `toml:"max_forward"`
	MaxLateral float64 `toml:"max_lateral"`
	MaxTurn    float64 `toml:"max_turn"`

	// Swing apex is BaseFootLift plus FootLiftModifier for a full-size step,
	// limited to [MinApex, MaxApex].
	BaseFootLift     float64 `toml:"base_foot_lift"`
	FootLiftModifier float64 `toml:"foot_lift_modifier"`
	MinApex          float64 `toml:"min_apex"`
	MaxApex          float64 `toml:"max_apex"`

	// Reach limits. A step which exceeds them is infeasible.
	MaxFootSeparation float64 `toml:"max_foot_separation"`
	MaxSwingDistance  float64 `toml:"max_swing_distance"`

	// A swing foot pressing harder than ContactThreshold (newtons) ends the
	// step early, once at least MinStepDurationRatio of it has elapsed.
	ContactThreshold     float64 `toml:"contact_threshold"`
	MinStepDurationRatio float64 `toml:"min_step_duration_ratio"`

	// Fraction of its planned duration to which a step is cut short when the
	// robot becomes unstable.
	TruncationRatio float64 `toml:"truncation_ratio"`
}

type VelocityConfig struct {
	MinForward float64 `toml:"min_forward"`
	MaxForward float64 `toml:"max_forward"`
	MinLateral float64 `toml:"min_lateral"`
	MaxLateral float64 `toml:"max_lateral"`
	MinTurn    float64 `toml:"min_turn"`
	MaxTurn    float64 `toml:"max_turn"`

	// Per-second limits on the change of each component.
	MaxAccelForward float64 `toml:"max_accel_forward"`
	MaxAccelLateral float64 `toml:"max_accel_lateral"`
	MaxAccelTurn    float64 `toml:"max_accel_turn"`
}

type StanceConfig struct {
	Width    float64 `toml:"width"`
	MinWidth float64 `toml:"min_width"`
}

type GaitConfig struct {

	// Height of the hips above the ground while walking.
	WalkHeight float64 `toml:"walk_height"`

	// Sideways sway of the center of mass towards the support foot.
	ComSway float64 `toml:"com_sway"`

	ArmSwingMultiplier float64 `toml:"arm_swing_multiplier"`
	ArmRestPitch       float64 `toml:"arm_rest_pitch"`

	// Height of the hips when sitting, and how fast (m/s) they move between
	// that and the walking height.
	SitHeight  float64 `toml:"sit_height"`
	HeightRate float64 `toml:"height_rate"`

	WalkingStiffness  float64 `toml:"walking_stiffness"`
	StandingStiffness float64 `toml:"standing_stiffness"`
	SittingStiffness  float64 `toml:"sitting_stiffness"`
	ArmStiffness      float64 `toml:"arm_stiffness"`
}

type BalanceConfig struct {

	// One of "ankle", "com", "hip" or "combined".
	Strategy string `toml:"strategy"`

	// Low-pass filter weight of each new gyro sample, in (0, 1].
	GyroAlpha float64 `toml:"gyro_alpha"`

	AnkleGain    float64 `toml:"ankle_gain"`
	AnkleDamping float64 `toml:"ankle_damping"`
	HipGain      float64 `toml:"hip_gain"`
	HipDamping   float64 `toml:"hip_damping"`
	ComGain      float64 `toml:"com_gain"`
	TimingGain   float64 `toml:"timing_gain"`

	MaxAnkleCorrection  float64 `toml:"max_ankle_correction"`
	MaxHipCorrection    float64 `toml:"max_hip_correction"`
	MaxComOffset        float64 `toml:"max_com_offset"`
	MaxTimingCorrection float64 `toml:"max_timing_correction"`

	// Tilt (radians from upright) past which the robot is considered to be
	// falling, once it has persisted for more than FallTicks ticks.
	FallThreshold float64 `toml:"fall_threshold"`
	FallTicks     int     `toml:"fall_ticks"`

	// Frames older than this are stale.
	StaleThreshold float64 `toml:"stale_threshold"`

	// Foot leveling tilts the swing ankle against the torso tilt, fading out
	// (logistically, centred on FootLevelShift of the step) before touchdown.
	// The correction changes by no more than MaxLevelDelta per tick.
	FootLevelGain  float64 `toml:"foot_level_gain"`
	FootLevelShift float64 `toml:"foot_level_shift"`
	FootLevelDecay float64 `toml:"foot_level_decay"`
	MaxLevelDelta  float64 `toml:"max_level_delta"`
}

type KinematicsConfig struct {
	ThighLength float64 `toml:"thigh_length"`
	TibiaLength float64 `toml:"tibia_length"`
	FootHeight  float64 `toml:"foot_height"`
	HipOffsetY  float64 `toml:"hip_offset_y"`
	HipOffsetZ  float64 `toml:"hip_offset_z"`
}

type HardwareConfig struct {
	Port       string `toml:"port"`
	BaudRate   uint   `toml:"baud_rate"`
	Controller string `toml:"controller"`

	// Dynamixel ID of the servo driving each joint, in Joint order.
	Servos [NumJoints]int `toml:"servos"`

	// Servo to read the battery voltage from, the voltage at which to shut
	// down, and the seconds between checks.
	VoltageServo    int     `toml:"voltage_servo"`
	MinVoltage      float64 `toml:"min_voltage"`
	VoltageInterval float64 `toml:"voltage_interval"`

	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Topic    string `toml:"topic"`
}

// DefaultConfig returns a configuration which suits a kid-size humanoid.
func DefaultConfig() Config {
	return Config{
		Loop: LoopConfig{
			Period:            0.01,
			MaxDeadlineMisses: 10,
			StartTicks:        1,
			QueueDepth:        2,
		},
		Step: StepConfig{
			NominalDuration:      0.25,
			MinDuration:          0.2,
			MaxDuration:          0.4,
			DurationModifier:     0,
			MaxForward:           0.05,
			MaxLateral:           0.04,
			MaxTurn:              0.3,
			BaseFootLift:         0.012,
			FootLiftModifier:     0.01,
			MinApex:              0.005,
			MaxApex:              0.03,
			MaxFootSeparation:    0.2,
			MaxSwingDistance:     0.15,
			ContactThreshold:     10,
			MinStepDurationRatio: 0.75,
			TruncationRatio:      0.6,
		},
		Velocity: VelocityConfig{
			MinForward:      -0.1,
			MaxForward:      0.2,
			MinLateral:      -0.1,
			MaxLateral:      0.1,
			MinTurn:         -0.8,
			MaxTurn:         0.8,
			MaxAccelForward: 0.5,
			MaxAccelLateral: 0.5,
			MaxAccelTurn:    2.0,
		},
		Stance: StanceConfig{
			Width:    0.10,
			MinWidth: 0.07,
		},
		Gait: GaitConfig{
			WalkHeight:         0.22,
			ComSway:            0.015,
			ArmSwingMultiplier: 4.0,
			ArmRestPitch:       1.57,
			SitHeight:          0.16,
			HeightRate:         0.05,
			WalkingStiffness:   0.8,
			StandingStiffness:  0.6,
			SittingStiffness:   0.3,
			ArmStiffness:       0.4,
		},
		Balance: BalanceConfig{
			Strategy:            "combined",
			GyroAlpha:           0.3,
			AnkleGain:           0.3,
			AnkleDamping:        0.05,
			HipGain:             0.3,
			HipDamping:          0.05,
			ComGain:             0.05,
			TimingGain:          0.5,
			MaxAnkleCorrection:  0.15,
			MaxHipCorrection:    0.15,
			MaxComOffset:        0.02,
			MaxTimingCorrection: 0.05,
			FallThreshold:       0.5,
			FallTicks:           20,
			StaleThreshold:      0.05,
			FootLevelGain:       0.8,
			FootLevelShift:      0.7,
			FootLevelDecay:      15,
			MaxLevelDelta:       0.01,
		},
		Kinematics: KinematicsConfig{
			ThighLength: 0.1,
			TibiaLength: 0.1029,
			FootHeight:  0.04519,
			HipOffsetY:  0.05,
			HipOffsetZ:  0,
		},
		Hardware: HardwareConfig{
			Port:            "/dev/ttyACM0",
			BaudRate:        1000000,
			Controller:      "/dev/input/event0",
			Servos:          [NumJoints]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
			VoltageServo:    1,
			MinVoltage:      9.6,
			VoltageInterval: 5,
			Broker:          "tcp://localhost:1883",
			ClientID:        "biped",
			Topic:           "biped/walk",
		},
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are an error,
// as is any value which fails validation.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	return ReadConfig(f)
}

// ReadConfig is LoadConfig for an already opened reader.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()

	err := d.Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Encode writes the config as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func (c Config) String() string {
	b := &bytes.Buffer{}
	err := c.Encode(b)
	if err != nil {
		return fmt.Sprintf("Config{%s}", err)
	}

	return b.String()
}

// Validate returns every problem with the config, combined into one error.
func (c Config) Validate() error {
	var errs error

	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Loop.Period > 0, "loop.period must be positive")
	check(c.Loop.MaxDeadlineMisses > 0, "loop.max_deadline_misses must be positive")
	check(c.Loop.StartTicks > 0, "loop.start_ticks must be positive")
	check(c.Loop.QueueDepth >= 0, "loop.queue_depth must not be negative")

	s := c.Step
	check(s.MinDuration > 0, "step.min_duration must be positive")
	check(s.MinDuration <= s.NominalDuration && s.NominalDuration <= s.MaxDuration,
		"step.nominal_duration (%v) must be within [%v, %v]", s.NominalDuration, s.MinDuration, s.MaxDuration)
	check(s.MaxForward >= 0, "step.max_forward must not be negative")
	check(s.MaxLateral >= 0, "step.max_lateral must not be negative")
	check(s.MaxTurn >= 0 && s.MaxTurn < 1.5, "step.max_turn must be within [0, 1.5)")
	check(s.MinApex >= 0 && s.MinApex <= s.MaxApex, "step.min_apex must be within [0, max_apex]")
	check(s.MaxFootSeparation > 0, "step.max_foot_separation must be positive")
	check(s.MaxSwingDistance > 0, "step.max_swing_distance must be positive")
	check(s.MinStepDurationRatio >= 0 && s.MinStepDurationRatio <= 1, "step.min_step_duration_ratio must be within [0, 1]")
	check(s.TruncationRatio > 0.5 && s.TruncationRatio <= 1, "step.truncation_ratio must be within (0.5, 1]")

	v := c.Velocity
	check(v.MinForward <= 0 && v.MaxForward >= 0, "velocity forward range must include zero")
	check(v.MinLateral <= 0 && v.MaxLateral >= 0, "velocity lateral range must include zero")
	check(v.MinTurn <= 0 && v.MaxTurn >= 0, "velocity turn range must include zero")
	check(v.MaxAccelForward > 0 && v.MaxAccelLateral > 0 && v.MaxAccelTurn > 0, "velocity accelerations must be positive")

	check(c.Stance.MinWidth > 0 && c.Stance.MinWidth <= c.Stance.Width,
		"stance.min_width (%v) must be within (0, width]", c.Stance.MinWidth)

	check(c.Gait.WalkHeight > 0, "gait.walk_height must be positive")
	check(c.Gait.ComSway >= 0, "gait.com_sway must not be negative")
	check(c.Gait.SitHeight > 0 && c.Gait.SitHeight <= c.Gait.WalkHeight,
		"gait.sit_height (%v) must be within (0, walk_height]", c.Gait.SitHeight)
	check(c.Gait.HeightRate > 0, "gait.height_rate must be positive")

	b := c.Balance
	check(b.GyroAlpha > 0 && b.GyroAlpha <= 1, "balance.gyro_alpha must be within (0, 1]")
	check(b.MaxAnkleCorrection >= 0 && b.MaxHipCorrection >= 0 && b.MaxComOffset >= 0 && b.MaxTimingCorrection >= 0,
		"balance limits must not be negative")
	check(b.FallThreshold > 0, "balance.fall_threshold must be positive")
	check(b.FallTicks >= 0, "balance.fall_ticks must not be negative")
	check(b.StaleThreshold > 0, "balance.stale_threshold must be positive")
	check(b.FootLevelGain >= 0 && b.FootLevelDecay >= 0, "balance foot leveling gains must not be negative")
	check(b.MaxLevelDelta > 0, "balance.max_level_delta must be positive")

	k := c.Kinematics
	check(k.ThighLength > 0 && k.TibiaLength > 0, "kinematics segment lengths must be positive")
	check(k.FootHeight >= 0, "kinematics.foot_height must not be negative")

	seen := map[int]Joint{}
	for j, id := range c.Hardware.Servos {
		check(id > 0 && id < 254, "hardware.servos: invalid id %d for %v", id, Joint(j))
		if other, ok := seen[id]; ok {
			check(false, "hardware.servos: id %d used by both %v and %v", id, other, Joint(j))
		}
		seen[id] = Joint(j)
	}

	return errs
}
