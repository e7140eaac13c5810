package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
)

const accessibilityCSV = `;anchovy;sardine;hake < 1;hake
anchovy;0;0;0;0.8
sardine;0;0;0;0.6
hake < 1;0;0;0;0.3
hake;0;0;0;0
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadConfig merges yaml over the embedded defaults.
func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accessibility.csv"), []byte(accessibilityCSV), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func newReplicate(t *testing.T, cfg *config.Config, seed int64, outDir string) *Replicate {
	t.Helper()
	in, err := LoadInputs(cfg)
	require.NoError(t, err)
	r, err := NewReplicate(cfg, in, 0, seed, outDir, quietLogger())
	require.NoError(t, err)
	return r
}

func TestReplicate_InitialPopulation(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1}\n")
	r := newReplicate(t, cfg, 1, "")

	// one school per yearly age class: 4 + 6 + 12
	require.Equal(t, 22, r.Schools().Len())
	for i, sp := range r.Species() {
		var biomass float64
		for _, s := range r.Schools().Species(i, nil) {
			biomass += s.Biomass()
			require.NotNil(t, s.Genotype)
		}
		require.InDelta(t, cfg.Species[i].InitialBiomass, biomass, 1e-6*biomass, sp.Name)
	}
}

func TestReplicate_StepInvariants(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1}\n")
	r := newReplicate(t, cfg, 3, "")

	for range cfg.Derived.NStep {
		require.NoError(t, r.Step())
		r.Schools().Each(func(s *components.School) {
			require.True(t, s.Alive(), "empty schools are pruned")
			require.LessOrEqual(t, s.AgeDt, s.Species.Lifespan)
			require.GreaterOrEqual(t, s.GonadWeight, 0.0)
		})
	}
	require.Equal(t, cfg.Derived.NStep, r.CurrentStep())
	require.Len(t, r.LastStats(), 3)
}

func TestReplicate_Deterministic(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1}\n")

	a := newReplicate(t, cfg, 42, "")
	b := newReplicate(t, cfg, 42, "")
	require.NoError(t, a.Run())
	require.NoError(t, b.Run())
	require.Equal(t, a.LastStats(), b.LastStats())

	c := newReplicate(t, cfg, 43, "")
	require.NoError(t, c.Run())
	require.NotEqual(t, a.LastStats(), c.LastStats())
}

func TestReplicate_WithPredation(t *testing.T) {
	cfg := loadConfig(t, `
simulation: {n_year: 1, n_substep: 2}
predation: {accessibility_file: accessibility.csv}
output: {record_frequency: 24}
`)
	for i := range cfg.Species {
		cfg.Species[i].Reproduction.NSchool = 2
	}
	r := newReplicate(t, cfg, 5, "")
	require.NoError(t, r.Run())

	var preyed float64
	for _, row := range r.LastStats() {
		preyed += row.DeadPredation
	}
	require.Greater(t, preyed, 0.0)
}

func TestReplicate_PredationOutcomeFollowsSeed(t *testing.T) {
	cfg := loadConfig(t, `
simulation: {n_year: 1, n_substep: 2}
genetics: {enabled: false}
predation: {accessibility_file: accessibility.csv}
output: {record_frequency: 24}
`)
	for i := range cfg.Species {
		cfg.Species[i].Reproduction.NSchool = 2
	}

	biomass := func(seed int64) []float64 {
		r := newReplicate(t, cfg, seed, "")
		require.NoError(t, r.Run())
		var out []float64
		for _, row := range r.LastStats() {
			out = append(out, row.Biomass)
		}
		return out
	}

	// Without genetics the rng only orders the mortality sub-steps.
	require.Equal(t, biomass(5), biomass(5))
	require.NotEqual(t, biomass(5), biomass(6))
}

func TestRunner_SeedsAndOutput(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1, replicates: 3, seed: 100, workers: 2}\noutput: {record_frequency: 6}\n")
	in, err := LoadInputs(cfg)
	require.NoError(t, err)

	out := t.TempDir()
	runner := NewRunner(cfg, in, out, quietLogger())
	require.Equal(t, int64(100), runner.BaseSeed())
	require.Equal(t, filepath.Join(out, runner.RunID()), runner.OutputDir())

	results := runner.Run(context.Background())
	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, i, res.Replicate)
		require.Equal(t, int64(100+i), res.Seed)
		require.Equal(t, cfg.Derived.NStep, res.Steps)
		require.Len(t, res.Final, 3)

		dir := filepath.Join(runner.OutputDir(), fmt.Sprintf("replicate_%03d", i))
		for _, name := range []string{"species.csv", "perf.csv", "config.yaml", "snapshot_23.json"} {
			_, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err, name)
		}
	}
}

func TestRunner_ReplicateErrorReported(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1, replicates: 2}\n")
	cfg.Species[0].Mortality.Natural = -1
	in, err := LoadInputs(cfg)
	require.NoError(t, err)

	results := NewRunner(cfg, in, "", quietLogger()).Run(context.Background())
	for _, res := range results {
		require.ErrorIs(t, res.Err, config.ErrInvalidParameter)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	cfg := loadConfig(t, "simulation: {n_year: 1, replicates: 2}\n")
	in, err := LoadInputs(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, res := range NewRunner(cfg, in, "", quietLogger()).Run(ctx) {
		require.ErrorIs(t, res.Err, context.Canceled)
	}
}
