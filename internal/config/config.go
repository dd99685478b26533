package config

import (
	"os"

	"goqv/domain/qv"
	"goqv/internal/errors"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds report API server settings
type ServerConfig struct {
	Addr    string
	GinMode string
}

// ExperimentConfig describes one quantum volume experiment: the qubit
// subsets defining each width, and the execution parameters for the
// simulated backend.
type ExperimentConfig struct {
	QubitLists       [][]int `yaml:"qubit_lists"`
	Trials           int     `yaml:"trials"`
	Shots            int     `yaml:"shots"`
	Seed             int64   `yaml:"seed"`
	ErrorRate        float64 `yaml:"error_rate"`
	RequireMonotonic bool    `yaml:"require_monotonic"`
	Parallelism      int     `yaml:"parallelism"`
}

// DefaultExperiment mirrors the canonical six-qubit benchmark setup:
// nested subsets up to width 6, 50 trials, 1024 shots per circuit.
func DefaultExperiment() ExperimentConfig {
	return ExperimentConfig{
		QubitLists: [][]int{{0, 1, 3}, {0, 1, 3, 5}, {0, 1, 3, 5, 7}, {0, 1, 3, 5, 7, 10}},
		Trials:     50,
		Shots:      1024,
		Seed:       42,
		ErrorRate:  0.02,
	}
}

// LoadExperimentFile reads an experiment config from YAML, filling
// unspecified fields from the defaults.
func LoadExperimentFile(path string) (ExperimentConfig, error) {
	cfg := DefaultExperiment()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read experiment config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse experiment config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks execution parameters; width invariants are enforced by
// the domain constructor.
func (c ExperimentConfig) Validate() error {
	if c.Trials < 1 {
		return errors.New(errors.CodeConfig, "trials must be positive")
	}
	if c.Shots < 1 {
		return errors.New(errors.CodeConfig, "shots must be positive")
	}
	if c.ErrorRate < 0 || c.ErrorRate > 1 {
		return errors.New(errors.CodeConfig, "error_rate must be in [0, 1]")
	}
	if c.Parallelism < 0 {
		return errors.New(errors.CodeConfig, "parallelism cannot be negative")
	}
	return nil
}

// WidthConfig builds the validated domain width configuration
func (c ExperimentConfig) WidthConfig() (*qv.WidthConfig, error) {
	widths, err := qv.NewWidthConfig(c.QubitLists)
	if err != nil {
		return nil, errors.Wrap(err, "invalid qubit_lists")
	}
	return widths, nil
}

// LoadServer reads server settings from the environment
func LoadServer() ServerConfig {
	cfg := ServerConfig{
		Addr:    ":8080",
		GinMode: "release",
	}
	if addr := os.Getenv("GOQV_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.GinMode = mode
	}
	return cfg
}
