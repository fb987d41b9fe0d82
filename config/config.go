// Package config loads run configuration: the voyage definition, the
// scenario ensemble, and planner settings. YAML file first, environment
// overrides second.
package config

import (
	"fmt"
	"os"
	"time"

	"sailplan/boat"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Point is a position in the planning plane, nautical miles.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ScenarioConfig describes one wind field. Constant fields need speed and
// direction; grid fields carry their axes and U/V component values inline.
type ScenarioConfig struct {
	Type      string  `yaml:"type" validate:"required,oneof=constant grid"`
	Prob      float64 `yaml:"prob" validate:"gte=0,lte=1"`
	Speed     float64 `yaml:"speed" validate:"gte=0"`
	Direction float64 `yaml:"direction" validate:"gte=0,lt=360"`
	Horizon   float64 `yaml:"horizon" validate:"gte=0"`

	Xs []float64     `yaml:"xs,omitempty"`
	Ys []float64     `yaml:"ys,omitempty"`
	Ts []float64     `yaml:"ts,omitempty"`
	U  [][][]float64 `yaml:"u,omitempty"`
	V  [][][]float64 `yaml:"v,omitempty"`
}

// BudgetConfig mirrors searcher.Budget.
type BudgetConfig struct {
	Iterations int           `yaml:"iterations" validate:"gte=0"`
	Duration   time.Duration `yaml:"duration" validate:"gte=0"`
}

// RunConfig is one full experiment definition.
type RunConfig struct {
	Start        Point            `yaml:"start"`
	Goal         Point            `yaml:"goal"`
	GoalRadius   float64          `yaml:"goal_radius" validate:"gt=0"`
	HorizonHours float64          `yaml:"horizon_hours" validate:"gt=0"`
	StepHours    float64          `yaml:"step_hours" validate:"gt=0"`
	Headings     []float64        `yaml:"course,omitempty"`
	NoiseStd     float64          `yaml:"noise_std" validate:"gte=0"`
	Seed         uint64           `yaml:"seed"`
	Budget       BudgetConfig     `yaml:"budget"`
	Aggregation  string           `yaml:"aggregation" validate:"omitempty,oneof=weighted_mean vote"`
	Scenarios    []ScenarioConfig `yaml:"scenarios" validate:"required,min=1,dive"`
	Truth        *ScenarioConfig  `yaml:"truth" validate:"required"`
	MaxSteps     int              `yaml:"max_steps" validate:"gte=0"`
}

var validate = validator.New()

// Default is a two-scenario reference run: equally likely northerly and
// easterly breezes, goal due north of the start.
func Default() RunConfig {
	return RunConfig{
		Start:        Point{X: 0, Y: 0},
		Goal:         Point{X: 0, Y: 120},
		GoalRadius:   5,
		HorizonHours: 48,
		StepHours:    1,
		NoiseStd:     0.1,
		Seed:         42,
		Budget:       BudgetConfig{Iterations: 2000},
		Aggregation:  "weighted_mean",
		Scenarios: []ScenarioConfig{
			{Type: "constant", Prob: 0.5, Speed: 12, Direction: 0},
			{Type: "constant", Prob: 0.5, Speed: 12, Direction: 90},
		},
		Truth:    &ScenarioConfig{Type: "constant", Speed: 12, Direction: 45},
		MaxSteps: 200,
	}
}

// Load reads and validates a YAML run configuration.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return RunConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Course returns the configured headings, defaulting to the 8-point rose.
func (c RunConfig) Course() boat.Course {
	if len(c.Headings) == 0 {
		return boat.DefaultCourse()
	}
	return boat.Course(c.Headings)
}

// StartState returns the boat at the configured start, at time zero.
func (c RunConfig) StartState() boat.State {
	return boat.State{Pos: boat.Position{X: c.Start.X, Y: c.Start.Y}}
}

// GoalPosition returns the configured goal.
func (c RunConfig) GoalPosition() boat.Position {
	return boat.Position{X: c.Goal.X, Y: c.Goal.Y}
}

// Sampler builds the transition sampler from the default polar.
func (c RunConfig) Sampler() (*vpp.Sampler, error) {
	return vpp.NewSampler(vpp.Default(), c.NoiseStd, c.StepHours)
}

// Ensemble builds the validated scenario ensemble.
func (c RunConfig) Ensemble() (wind.Ensemble, error) {
	scenarios := make([]wind.Scenario, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		field, err := buildField(sc)
		if err != nil {
			return wind.Ensemble{}, fmt.Errorf("scenario %d: %w", i, err)
		}
		scenarios[i] = wind.Scenario{Field: field, Prob: sc.Prob}
	}
	return wind.NewEnsemble(scenarios...)
}

// TruthField builds the held-out validation field.
func (c RunConfig) TruthField() (wind.Field, error) {
	field, err := buildField(*c.Truth)
	if err != nil {
		return nil, fmt.Errorf("truth: %w", err)
	}
	return field, nil
}

func buildField(sc ScenarioConfig) (wind.Field, error) {
	switch sc.Type {
	case "constant":
		return wind.ConstantField{
			Wind:    wind.Vector{Speed: sc.Speed, Direction: sc.Direction},
			Horizon: sc.Horizon,
		}, nil
	case "grid":
		return wind.NewGridField(sc.Xs, sc.Ys, sc.Ts, sc.U, sc.V)
	default:
		return nil, fmt.Errorf("unknown field type %q", sc.Type)
	}
}
