package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	Motion MotionTuning `yaml:"motion"`
	Speeds Speeds       `yaml:"speeds"`
	Ground Ground       `yaml:"ground"`
}

type MotionTuning struct {
	PetFollowDistance float32 `yaml:"pet_follow_distance"`
	// PetFollowAngle is in radians.
	PetFollowAngle float32 `yaml:"pet_follow_angle"`

	MaxFallDistance     float32 `yaml:"max_fall_distance"`
	FallGroundTolerance float32 `yaml:"fall_ground_tolerance"`

	AssistanceDistractMs uint32  `yaml:"assistance_distract_ms"`
	WanderDistance       float32 `yaml:"wander_distance"`
}

type Speeds struct {
	Run  float32 `yaml:"run"`
	Fall float32 `yaml:"fall"`
	Taxi float32 `yaml:"taxi"`
}

// Ground describes the reference terrain: a base height with an optional
// sinusoidal hill pattern.
type Ground struct {
	BaseHeight    float32 `yaml:"base_height"`
	HillAmplitude float32 `yaml:"hill_amplitude"`
	HillPeriod    float32 `yaml:"hill_period"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz: 10,
		Motion: MotionTuning{
			PetFollowDistance:    1,
			PetFollowAngle:       3.14159265 / 2,
			MaxFallDistance:      250,
			FallGroundTolerance:  0.1,
			AssistanceDistractMs: 1500,
			WanderDistance:       5,
		},
		Speeds: Speeds{
			Run:  7,
			Fall: 20,
			Taxi: 32,
		},
		Ground: Ground{
			BaseHeight: 0,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize fills zero values with defaults.
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.Motion.MaxFallDistance <= 0 {
		t.Motion.MaxFallDistance = d.Motion.MaxFallDistance
	}
	if t.Motion.FallGroundTolerance <= 0 {
		t.Motion.FallGroundTolerance = d.Motion.FallGroundTolerance
	}
	if t.Speeds.Run <= 0 {
		t.Speeds.Run = d.Speeds.Run
	}
	if t.Speeds.Fall <= 0 {
		t.Speeds.Fall = d.Speeds.Fall
	}
	if t.Speeds.Taxi <= 0 {
		t.Speeds.Taxi = d.Speeds.Taxi
	}
}

func (t Tuning) Validate() error {
	if t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.Motion.PetFollowDistance < 0 {
		return fmt.Errorf("motion.pet_follow_distance must be >= 0")
	}
	if t.Motion.WanderDistance < 0 {
		return fmt.Errorf("motion.wander_distance must be >= 0")
	}
	if t.Ground.HillAmplitude != 0 && t.Ground.HillPeriod <= 0 {
		return fmt.Errorf("ground.hill_period must be > 0 when hill_amplitude is set")
	}
	return nil
}

// TickMs is the simulated duration of one tick.
func (t Tuning) TickMs() uint32 {
	return uint32(1000 / t.TickRateHz)
}
