package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/simulation"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and snapshots (overrides config)")
	seed := flag.Int64("seed", 0, "Base RNG seed (0 = config or time-based)")
	replicates := flag.Int("replicates", 0, "Number of replicates (0 = use config)")
	years := flag.Int("years", 0, "Simulated years (0 = use config)")
	workers := flag.Int("workers", 0, "Parallel replicates (0 = use config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Environment first, then flags
	env, err := config.ParseEnv()
	if err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}
	flags := config.EnvOverrides{
		Seed:       *seed,
		Replicates: *replicates,
		Years:      *years,
		Workers:    *workers,
		OutputDir:  *outputDir,
	}
	for _, o := range []config.EnvOverrides{env, flags} {
		if err := o.Apply(cfg); err != nil {
			slog.Error("invalid override", "error", err)
			os.Exit(1)
		}
	}

	inputs, err := simulation.LoadInputs(cfg)
	if err != nil {
		slog.Error("failed to load inputs", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := simulation.NewRunner(cfg, inputs, cfg.Output.Dir, logger)
	slog.Info("starting run",
		"run_id", runner.RunID(),
		"seed", runner.BaseSeed(),
		"replicates", cfg.Simulation.Replicates,
		"species", len(cfg.Species),
		"steps", cfg.Derived.NStep,
		"output_dir", runner.OutputDir(),
	)

	start := time.Now()
	results := runner.Run(ctx)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			slog.Error("replicate failed", "replicate", res.Replicate, "seed", res.Seed, "error", res.Err)
			continue
		}
		for _, row := range res.Final {
			slog.Info("final", "replicate", res.Replicate, "stats", row)
		}
	}
	slog.Info("run complete",
		"run_id", runner.RunID(),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if failed > 0 {
		os.Exit(1)
	}
}
