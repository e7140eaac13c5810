package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/population"
	"github.com/pthm-cable/shoal/sampling"
)

// ReproductionParams holds the spawning parameters of one species.
type ReproductionParams struct {
	SexRatio       float64
	EggsPerGram    float64
	SeedingBiomass float64 // t
	NSchool        int
}

// SpawnResult summarises one species' reproduction in a step.
type SpawnResult struct {
	Species    int
	SSB        float64 // t
	Eggs       float64
	NewSchools int
	SpinUp     bool
}

// Reproduction turns mature biomass into new age-zero schools.
//
// Each step runs in two phases. Phase A visits every school once: mature
// biomass adds to the species' spawning stock (SSB) and every school ages
// by one step. Phase B computes each species' egg production and creates
// the new schools.
//
// While the step is below the seeding horizon and a species has no SSB,
// a configured seeding biomass stands in for it and the new schools get
// independent genotypes. Otherwise mature schools release the seasonal
// share of their gonads as eggs and are entered into a parent draft
// weighted by their egg contribution.
type Reproduction struct {
	species      []*biology.Species
	params       []ReproductionParams
	season       *Season
	inheritance  components.Inheritance // nil disables genotypes
	seedingSteps int

	ssb     []float64
	draft   *sampling.Draft[*components.School]
	buf     []*components.School
	created []components.School
}

// NewReproduction validates the reproduction parameters of every species.
// inheritance may be nil when genetics is disabled.
func NewReproduction(cfg *config.Config, species []*biology.Species, season *Season, inheritance components.Inheritance) (*Reproduction, error) {
	r := &Reproduction{
		species:      species,
		params:       make([]ReproductionParams, len(species)),
		season:       season,
		inheritance:  inheritance,
		seedingSteps: cfg.Derived.SeedingSteps,
		ssb:          make([]float64, len(species)),
		draft:        sampling.NewDraft[*components.School](64),
	}
	for i := range species {
		rc := cfg.Species[i].Reproduction
		key := func(k string) string { return config.SpeciesKey(i, "reproduction."+k) }
		switch {
		case rc.SexRatio < 0 || rc.SexRatio > 1 || math.IsNaN(rc.SexRatio):
			return nil, config.Invalid(key("sex_ratio"), "must be in [0, 1]")
		case rc.EggsPerGram < 0 || math.IsNaN(rc.EggsPerGram):
			return nil, config.Invalid(key("eggs_per_gram"), "must not be negative")
		case rc.SeedingBiomass < 0 || math.IsNaN(rc.SeedingBiomass):
			return nil, config.Invalid(key("seeding_biomass"), "must not be negative")
		case rc.NSchool < 1:
			return nil, config.Invalid(key("n_school"), "must be at least 1")
		}
		r.params[i] = ReproductionParams{
			SexRatio:       rc.SexRatio,
			EggsPerGram:    rc.EggsPerGram,
			SeedingBiomass: rc.SeedingBiomass,
			NSchool:        rc.NSchool,
		}
	}
	return r, nil
}

// SSB returns the spawning stock biomass of species from the last step.
func (r *Reproduction) SSB(species int) float64 { return r.ssb[species] }

// Step runs both phases for step and adds the new schools to set.
func (r *Reproduction) Step(set *population.SchoolSet, step int, rng *rand.Rand) ([]SpawnResult, error) {
	// Phase A: spawning stock and ageing
	clear(r.ssb)
	set.Each(func(s *components.School) {
		if s.Mature {
			r.ssb[s.Species.Index] += s.Biomass()
		}
		s.AgeDt++
	})

	// Phase B: eggs and new schools. Schools are buffered so parent
	// pointers stay valid until every species is done.
	r.created = r.created[:0]
	results := make([]SpawnResult, len(r.species))
	for i, sp := range r.species {
		res, err := r.spawn(set, sp, step, rng)
		if err != nil {
			return nil, fmt.Errorf("reproduction %s step %d: %w", sp.Name, step, err)
		}
		results[i] = res
	}
	for _, s := range r.created {
		set.Add(s)
	}
	return results, nil
}

func (r *Reproduction) spawn(set *population.SchoolSet, sp *biology.Species, step int, rng *rand.Rand) (SpawnResult, error) {
	i := sp.Index
	p := r.params[i]
	res := SpawnResult{Species: i, SSB: r.ssb[i]}
	season := r.season.Fraction(step, i)

	var nEgg float64
	if step < r.seedingSteps && r.ssb[i] == 0 {
		res.SpinUp = true
		nEgg = p.SexRatio * p.EggsPerGram * season * p.SeedingBiomass * biology.GramsPerTonne
	} else {
		r.draft.Reset()
		r.buf = set.Species(i, r.buf[:0])
		for _, s := range r.buf {
			if !s.Mature || !s.Alive() {
				continue
			}
			eggs := ReleaseGonad(s, season) * p.SexRatio / sp.EggWeight * biology.GramsPerTonne * s.Abundance
			nEgg += eggs
			if err := r.draft.Add(eggs, s); err != nil {
				return res, err
			}
		}
	}
	res.Eggs = nEgg

	n, per := SchoolSplit(nEgg, p.NSchool)
	for range n {
		school := components.NewSchool(sp, per, sp.EggSizeForMode(), 0)
		if r.inheritance != nil {
			if res.SpinUp {
				school.Genotype = r.inheritance.Init(rng, i)
			} else {
				mother, err := r.draft.Next(rng)
				if err != nil {
					return res, err
				}
				father, err := r.draft.Next(rng)
				if err != nil {
					return res, err
				}
				school.Genotype = r.inheritance.Combine(rng, i, mother.Genotype, father.Genotype)
			}
		}
		r.created = append(r.created, school)
	}
	res.NewSchools = n
	return res, nil
}

// ReleaseGonad removes the seasonal share of a school's gonad reserve and
// returns the released mass per individual (t). The reserve never goes
// below zero.
func ReleaseGonad(s *components.School, season float64) float64 {
	released := s.GonadWeight * season
	if released > s.GonadWeight {
		released = s.GonadWeight
	}
	if released <= 0 {
		return 0
	}
	s.GonadWeight -= released
	return released
}

// SchoolSplit returns how many schools nEgg eggs form and the abundance of
// each: none for zero eggs, one school below nSchool eggs, otherwise nSchool
// equal schools.
func SchoolSplit(nEgg float64, nSchool int) (int, float64) {
	switch {
	case nEgg <= 0:
		return 0, 0
	case nEgg < float64(nSchool):
		return 1, nEgg
	default:
		return nSchool, nEgg / float64(nSchool)
	}
}
