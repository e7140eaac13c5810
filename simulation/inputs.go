// Package simulation drives replicates of the population model.
package simulation

import (
	"fmt"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/lookup"
	"github.com/pthm-cable/shoal/systems"
)

// Inputs holds the tables read from disk once per run and shared
// read-only by every replicate.
type Inputs struct {
	Accessibility *lookup.Matrix // nil disables predation and starvation
	Catchability  *lookup.Matrix // nil selects knife-edge fishing
	Season        *systems.Season
}

// LoadInputs reads every table the configuration points at.
func LoadInputs(cfg *config.Config) (*Inputs, error) {
	in := &Inputs{}
	var err error
	if path := cfg.Predation.AccessibilityFile; path != "" {
		if in.Accessibility, err = lookup.Load(path); err != nil {
			return nil, fmt.Errorf("loading accessibility: %w", err)
		}
	}
	if path := cfg.Fishing.CatchabilityFile; path != "" {
		if in.Catchability, err = lookup.Load(path); err != nil {
			return nil, fmt.Errorf("loading catchability: %w", err)
		}
	}
	if in.Season, err = systems.LoadSeason(cfg); err != nil {
		return nil, err
	}
	return in, nil
}
