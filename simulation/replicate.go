package simulation

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/genetics"
	"github.com/pthm-cable/shoal/population"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// Replicate is one independent stochastic run. It owns all of its mutable
// state; the configuration and inputs are shared read-only.
type Replicate struct {
	cfg     *config.Config
	runID   string
	index   int
	seed    int64
	rng     *rand.Rand
	logger  *slog.Logger
	species []*biology.Species
	set     *population.SchoolSet

	inheritance components.Inheritance
	engine      *systems.MortalityEngine
	growth      *systems.Growth
	repro       *systems.Reproduction

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	out       *telemetry.OutputManager

	step int
	buf  []*components.School
	last []telemetry.SpeciesStats
}

// NewReplicate builds replicate index with its own RNG stream and seeds
// the initial population. outDir may be empty to disable output.
func NewReplicate(cfg *config.Config, in *Inputs, index int, seed int64, outDir string, logger *slog.Logger) (*Replicate, error) {
	species, err := biology.NewAll(cfg)
	if err != nil {
		return nil, err
	}

	r := &Replicate{
		cfg:       cfg,
		index:     index,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger.With("replicate", index, "seed", seed),
		species:   species,
		set:       population.NewSchoolSet(len(species)),
		growth:    systems.NewGrowth(cfg.Simulation.NStepYear, cfg.Simulation.Bioenergetics),
		collector: telemetry.NewCollector(species, index, cfg.Output.RecordFrequency),
		perf:      telemetry.NewPerfCollector(cfg.Simulation.NStepYear),
	}

	if cfg.Genetics.Enabled {
		traits := make([]config.TraitConfig, len(cfg.Species))
		for i, sc := range cfg.Species {
			traits[i] = sc.Trait
		}
		r.inheritance = genetics.New(cfg.Genetics, traits, r.rng)
	}

	causes, err := buildCauses(cfg, species, in)
	if err != nil {
		return nil, err
	}
	if r.engine, err = systems.NewMortalityEngine(cfg.Simulation.NSubstep, causes...); err != nil {
		return nil, err
	}
	if r.repro, err = systems.NewReproduction(cfg, species, in.Season, r.inheritance); err != nil {
		return nil, err
	}

	if r.out, err = telemetry.NewOutputManager(outDir); err != nil {
		return nil, err
	}
	if err := r.out.WriteConfig(cfg); err != nil {
		r.out.Close()
		return nil, err
	}

	r.seedPopulation()
	r.logger.Debug("replicate ready", "schools", r.set.Len(), "causes", len(causes))
	return r, nil
}

// buildCauses assembles the mortality causes. Predation and starvation
// only act when an accessibility table is configured.
func buildCauses(cfg *config.Config, species []*biology.Species, in *Inputs) ([]systems.MortalityCause, error) {
	natural, err := systems.NewNaturalMortality(cfg, species)
	if err != nil {
		return nil, err
	}
	fishing, err := systems.NewFishingMortality(cfg, species, in.Catchability)
	if err != nil {
		return nil, err
	}
	outOfDomain, err := systems.NewOutOfDomainMortality(cfg, species)
	if err != nil {
		return nil, err
	}
	causes := []systems.MortalityCause{natural, fishing, outOfDomain}

	if in.Accessibility != nil {
		predation, err := systems.NewPredation(cfg, species, in.Accessibility)
		if err != nil {
			return nil, err
		}
		starvation, err := systems.NewStarvationMortality(cfg, species)
		if err != nil {
			return nil, err
		}
		causes = append(causes, predation, starvation)
	}
	return causes, nil
}

// seedPopulation creates one school per yearly age class of every species,
// sharing the species' initial biomass equally between classes.
func (r *Replicate) seedPopulation() {
	nStepYear := r.cfg.Simulation.NStepYear
	for i, sp := range r.species {
		biomass := r.cfg.Species[i].InitialBiomass
		nClass := int(math.Ceil(r.cfg.Species[i].LifespanYears))
		if biomass <= 0 || nClass < 1 {
			continue
		}
		for year := range nClass {
			ageDt := year * nStepYear
			length := sp.LengthAtAge(float64(year))
			s := components.NewSchool(sp, 0, length, ageDt)
			s.Abundance = biomass / float64(nClass) / s.Weight
			if !sp.Bioenergetics {
				s.Mature, _ = sp.IsMature(length, ageDt)
			}
			if r.inheritance != nil {
				s.Genotype = r.inheritance.Init(r.rng, i)
			}
			r.set.Add(s)
		}
	}
}

// Step advances the replicate by one time step:
// mortality, growth, reproduction, cleanup, then telemetry.
func (r *Replicate) Step() error {
	r.perf.StartStep()

	r.perf.StartPhase(systems.PhaseMortality)
	r.buf = r.set.All(r.buf[:0])
	r.engine.Resolve(r.buf, r.rng)
	r.collector.RecordMortality(r.buf)

	r.perf.StartPhase(systems.PhaseGrowth)
	r.growth.Step(r.buf)

	r.perf.StartPhase(systems.PhaseReproduction)
	results, err := r.repro.Step(r.set, r.step, r.rng)
	if err != nil {
		return err
	}
	r.collector.RecordSpawn(results)

	r.perf.StartPhase(systems.PhaseCleanup)
	r.set.Prune(func(s *components.School) bool {
		return !s.Alive() || s.AgeDt > s.Species.Lifespan
	})

	r.perf.StartPhase(systems.PhaseTelemetry)
	if r.collector.ShouldFlush(r.step, r.cfg.Derived.NStep) {
		r.last = r.collector.Flush(r.set, r.step)
		if err := r.out.WriteSpecies(r.last); err != nil {
			return err
		}
	}
	r.perf.EndStep()

	if (r.step+1)%r.cfg.Simulation.NStepYear == 0 {
		if err := r.endOfYear(); err != nil {
			return err
		}
	}
	r.step++
	return nil
}

func (r *Replicate) endOfYear() error {
	stats := r.perf.Stats()
	if err := r.out.WritePerf(stats, r.index, r.step); err != nil {
		return err
	}
	var biomass float64
	for _, s := range r.set.All(r.buf[:0]) {
		biomass += s.Biomass()
	}
	r.logger.Info("year",
		"year", (r.step+1)/r.cfg.Simulation.NStepYear,
		"schools", r.set.Len(),
		"biomass", biomass,
		"perf", stats,
	)
	return nil
}

// Run steps the replicate to the end of the configured horizon, then
// saves a snapshot of the final population. Output files are closed on
// return.
func (r *Replicate) Run() (err error) {
	defer func() {
		if cerr := r.out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for r.step < r.cfg.Derived.NStep {
		if err := r.Step(); err != nil {
			return fmt.Errorf("replicate %d step %d: %w", r.index, r.step, err)
		}
	}

	if dir := r.out.Dir(); dir != "" {
		snap := telemetry.NewSnapshot(r.set, r.step-1)
		snap.RunID = r.runID
		snap.Replicate = r.index
		snap.Seed = r.seed
		if _, err := telemetry.SaveSnapshot(snap, dir); err != nil {
			return err
		}
	}
	for _, row := range r.last {
		r.logger.Debug("final", "stats", row)
	}
	return nil
}

// Schools returns the live school set.
func (r *Replicate) Schools() *population.SchoolSet { return r.set }

// Species returns the replicate's species.
func (r *Replicate) Species() []*biology.Species { return r.species }

// CurrentStep returns the number of completed steps.
func (r *Replicate) CurrentStep() int { return r.step }

// Perf returns step timings over the most recent year.
func (r *Replicate) Perf() telemetry.PerfStats { return r.perf.Stats() }

// LastStats returns the most recently recorded species statistics.
func (r *Replicate) LastStats() []telemetry.SpeciesStats { return r.last }
