package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/telemetry"
)

// Result is the outcome of one replicate.
type Result struct {
	Replicate int
	Seed      int64
	Steps     int
	Final     []telemetry.SpeciesStats
	Err       error
}

// Runner runs the configured replicates on a bounded pool of workers.
// Replicate i is seeded with the base seed plus i, so a run is
// reproducible regardless of scheduling.
type Runner struct {
	cfg        *config.Config
	inputs     *Inputs
	logger     *slog.Logger
	runID      string
	baseSeed   int64
	outDir     string
	numWorkers int
}

// NewRunner creates a runner. A zero configured seed is replaced by one
// derived from the clock. Output goes to outDir/<run id>/replicate_NNN
// unless outDir is empty.
func NewRunner(cfg *config.Config, inputs *Inputs, outDir string, logger *slog.Logger) *Runner {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	numWorkers := cfg.Simulation.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	numWorkers = min(numWorkers, cfg.Simulation.Replicates)

	r := &Runner{
		cfg:        cfg,
		inputs:     inputs,
		logger:     logger,
		runID:      uuid.NewString(),
		baseSeed:   seed,
		numWorkers: numWorkers,
	}
	if outDir != "" {
		r.outDir = filepath.Join(outDir, r.runID)
	}
	return r
}

// RunID returns the identifier of this run.
func (r *Runner) RunID() string { return r.runID }

// BaseSeed returns the seed of replicate 0.
func (r *Runner) BaseSeed() int64 { return r.baseSeed }

// OutputDir returns the run's output directory, or "" when disabled.
func (r *Runner) OutputDir() string { return r.outDir }

// Run executes every replicate and returns their results in replicate
// order. A failing replicate only aborts itself; its error is reported in
// its Result. Cancelling ctx stops replicates that have not started.
func (r *Runner) Run(ctx context.Context) []Result {
	n := r.cfg.Simulation.Replicates
	results := make([]Result, n)

	jobs := make(chan int, n)
	for i := range n {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < r.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i] = Result{Replicate: i, Seed: r.seed(i), Err: err}
					continue
				}
				results[i] = r.runOne(i)
			}
		}()
	}
	wg.Wait()
	return results
}

func (r *Runner) seed(i int) int64 { return r.baseSeed + int64(i) }

func (r *Runner) runOne(i int) Result {
	res := Result{Replicate: i, Seed: r.seed(i)}
	var dir string
	if r.outDir != "" {
		dir = filepath.Join(r.outDir, fmt.Sprintf("replicate_%03d", i))
	}

	rep, err := NewReplicate(r.cfg, r.inputs, i, res.Seed, dir, r.logger)
	if err != nil {
		res.Err = fmt.Errorf("replicate %d: %w", i, err)
		r.logger.Error("replicate setup failed", "replicate", i, "error", err)
		return res
	}
	rep.runID = r.runID

	start := time.Now()
	if err := rep.Run(); err != nil {
		res.Err = err
		r.logger.Error("replicate failed", "replicate", i, "step", rep.CurrentStep(), "error", err)
	} else {
		r.logger.Info("replicate done",
			"replicate", i,
			"elapsed", time.Since(start).Round(time.Millisecond),
			"phases", rep.Perf().Breakdown(),
		)
	}
	res.Steps = rep.CurrentStep()
	res.Final = rep.LastStats()
	return res
}
