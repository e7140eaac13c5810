package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/simulation"
	"github.com/pthm-cable/shoal/telemetry"
)

// failedPenalty is the fitness of a replicate that did not complete.
const failedPenalty = 1e6

// Target is the biomass a species should reach at the end of a run.
type Target struct {
	Species string  `csv:"species"`
	Biomass float64 `csv:"biomass"` // t
}

// LoadTargets reads target biomasses and checks every species exists.
func LoadTargets(path string, cfg *config.Config) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening targets: %w", err)
	}
	defer f.Close()

	var targets []Target
	if err := gocsv.UnmarshalFile(f, &targets); err != nil {
		return nil, fmt.Errorf("reading targets %s: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("targets %s: no rows", path)
	}
	for _, t := range targets {
		if _, ok := cfg.Derived.SpeciesIndex[t.Species]; !ok {
			return nil, fmt.Errorf("targets %s: unknown species %q", path, t.Species)
		}
		if t.Biomass < 0 {
			return nil, fmt.Errorf("targets %s: negative biomass for %s", path, t.Species)
		}
	}
	return targets, nil
}

// biomassError is the squared log error of the final biomass against the
// targets, summed over species.
func biomassError(final []telemetry.SpeciesStats, targets []Target) float64 {
	var sum float64
	for _, t := range targets {
		got := 0.0
		for _, row := range final {
			if row.Species == t.Species {
				got = row.Biomass
			}
		}
		d := math.Log1p(got) - math.Log1p(t.Biomass)
		sum += d * d
	}
	return sum
}

// FitnessEvaluator runs replicates and scores them against the targets.
type FitnessEvaluator struct {
	params  *ParamVector
	base    *config.Config
	inputs  *simulation.Inputs
	targets []Target
	years   int
	seeds   int
	seed    int64
	logger  *slog.Logger

	mu          sync.Mutex
	bestFitness float64
	bestFinal   []telemetry.SpeciesStats
}

// NewFitnessEvaluator creates a new evaluator running seeds replicates of
// years each, seeded from seed upward.
func NewFitnessEvaluator(params *ParamVector, base *config.Config, inputs *simulation.Inputs, targets []Target, years, seeds int, seed int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		base:        base,
		inputs:      inputs,
		targets:     targets,
		years:       years,
		seeds:       seeds,
		seed:        seed,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// copyConfig returns a copy of the base config whose species can be
// modified without touching the base.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	c := *fe.base
	c.Species = slices.Clone(fe.base.Species)
	c.Output.Dir = ""
	return &c
}

// Evaluate computes fitness for raw parameter values (lower = better):
// the mean biomass error over the replicates.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	overrides := config.EnvOverrides{Seed: fe.seed, Replicates: fe.seeds, Years: fe.years}
	if err := overrides.Apply(cfg); err != nil {
		return failedPenalty
	}

	results := simulation.NewRunner(cfg, fe.inputs, "", fe.logger).Run(context.Background())

	var total float64
	var best []telemetry.SpeciesStats
	bestErr := math.Inf(1)
	for _, res := range results {
		if res.Err != nil {
			total += failedPenalty
			continue
		}
		e := biomassError(res.Final, fe.targets)
		total += e
		if e < bestErr {
			bestErr, best = e, res.Final
		}
	}
	fitness := total / float64(len(results))

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestFinal = best
	}
	fe.mu.Unlock()
	return fitness
}

// BestFinal returns the final statistics of the best replicate of the best
// evaluation.
func (fe *FitnessEvaluator) BestFinal() []telemetry.SpeciesStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFinal
}
