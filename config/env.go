package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides holds run parameters that may be set from the environment.
// Zero values leave the loaded configuration untouched.
type EnvOverrides struct {
	Seed       int64  `env:"SHOAL_SEED"`
	Replicates int    `env:"SHOAL_REPLICATES"`
	Years      int    `env:"SHOAL_YEARS"`
	Workers    int    `env:"SHOAL_WORKERS"`
	OutputDir  string `env:"SHOAL_OUTPUT_DIR"`
}

// ParseEnv loads overrides from environment variables.
func ParseEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return EnvOverrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply copies the non-zero overrides into c and recomputes derived values.
func (o EnvOverrides) Apply(c *Config) error {
	if o.Seed != 0 {
		c.Simulation.Seed = o.Seed
	}
	if o.Replicates != 0 {
		c.Simulation.Replicates = o.Replicates
	}
	if o.Years != 0 {
		c.Simulation.NYear = o.Years
	}
	if o.Workers != 0 {
		c.Simulation.Workers = o.Workers
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}
