package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds process-level settings read from SAILPLAN_* environment
// variables (optionally via a .env file loaded by the caller).
type Env struct {
	ConfigPath string `envconfig:"CONFIG"`
	ResultsDir string `envconfig:"RESULTS_DIR" default:"results"`
	DBPath     string `envconfig:"DB_PATH"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty     bool   `envconfig:"PRETTY_LOG" default:"true"`
	Seed       uint64 `envconfig:"SEED"` // overrides the config seed when non-zero
}

// LoadEnv reads the SAILPLAN_* environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("sailplan", &env); err != nil {
		return Env{}, fmt.Errorf("process environment: %w", err)
	}
	return env, nil
}
