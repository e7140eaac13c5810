package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/lookup"
)

// checkRate validates a rate parameter. Unset rates are zero.
func checkRate(species int, key string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return config.Invalid(config.SpeciesKey(species, key), fmt.Sprintf("rate %g must be finite and non-negative", v))
	}
	return nil
}

// NaturalMortality applies background mortality, with a separate per-step
// rate while schools are younger than the species' larva/adult threshold.
type NaturalMortality struct {
	adult []float64
	larva []float64
}

// NewNaturalMortality converts annual natural mortality rates to per-step rates.
func NewNaturalMortality(cfg *config.Config, species []*biology.Species) (*NaturalMortality, error) {
	nm := &NaturalMortality{
		adult: make([]float64, len(species)),
		larva: make([]float64, len(species)),
	}
	nStepYear := float64(cfg.Simulation.NStepYear)
	for i := range species {
		mc := cfg.Species[i].Mortality
		if err := checkRate(i, "mortality.natural", mc.Natural); err != nil {
			return nil, err
		}
		if err := checkRate(i, "mortality.larva", mc.Larva); err != nil {
			return nil, err
		}
		nm.adult[i] = mc.Natural / nStepYear
		nm.larva[i] = mc.Larva
	}
	return nm, nil
}

func (nm *NaturalMortality) Cause() components.Cause { return components.CauseNatural }

func (nm *NaturalMortality) Rate(s *components.School) float64 {
	if s.AgeDt < s.Species.LarvaAdultAge {
		return nm.larva[s.Species.Index]
	}
	return nm.adult[s.Species.Index]
}

// NewOutOfDomainMortality returns the emigration cause: a fixed annual rate
// per species divided over the steps of a year.
func NewOutOfDomainMortality(cfg *config.Config, species []*biology.Species) (*FixedRate, error) {
	rates := make([]float64, len(species))
	for i := range species {
		r := cfg.Species[i].Mortality.OutOfDomain
		if err := checkRate(i, "mortality.out_of_domain", r); err != nil {
			return nil, err
		}
		rates[i] = r / float64(cfg.Simulation.NStepYear)
	}
	return NewFixedRate(components.CauseOutOfDomain, rates), nil
}

// FishingMortality applies an annual fishing rate scaled by selectivity.
// Selectivity is the summed catchability of every fishery for the school's
// species and age class, or knife-edge at the recruitment length when no
// catchability table is configured.
type FishingMortality struct {
	rates         []float64   // per species, per step
	recruitLength []float64   // cm
	selectivity   [][]float64 // [species][ageDt], nil without a table
}

// NewFishingMortality builds the fishing cause. Every species and age class
// must resolve to a column of catchability when the table is given.
func NewFishingMortality(cfg *config.Config, species []*biology.Species, catchability *lookup.Matrix) (*FishingMortality, error) {
	fm := &FishingMortality{
		rates:         make([]float64, len(species)),
		recruitLength: make([]float64, len(species)),
	}
	for i := range species {
		mc := cfg.Species[i].Mortality
		if err := checkRate(i, "mortality.fishing", mc.Fishing); err != nil {
			return nil, err
		}
		if err := checkRate(i, "mortality.recruitment_length", mc.RecruitmentLength); err != nil {
			return nil, err
		}
		fm.rates[i] = mc.Fishing / float64(cfg.Simulation.NStepYear)
		fm.recruitLength[i] = mc.RecruitmentLength
	}
	if catchability == nil {
		return fm, nil
	}

	fm.selectivity = make([][]float64, len(species))
	for i, sp := range species {
		fm.selectivity[i] = make([]float64, sp.Lifespan+1)
		for age := range fm.selectivity[i] {
			j, err := catchability.Cols.IndexOf(sp.Name, sp.AgeYears(age), lookup.StrictlyAbove)
			if err != nil {
				return nil, fmt.Errorf("catchability %s: %w", catchability.Path, err)
			}
			fm.selectivity[i][age] = catchability.ColSum(j)
		}
	}
	return fm, nil
}

func (fm *FishingMortality) Cause() components.Cause { return components.CauseFishing }

func (fm *FishingMortality) Rate(s *components.School) float64 {
	i := s.Species.Index
	if fm.rates[i] == 0 {
		return 0
	}
	if fm.selectivity != nil {
		sel := fm.selectivity[i]
		return fm.rates[i] * sel[min(s.AgeDt, len(sel)-1)]
	}
	if s.Length < fm.recruitLength[i] {
		return 0
	}
	return fm.rates[i]
}

// StarvationMortality kills schools whose predation success in the previous
// step fell below the species' critical efficiency. The rate grows linearly
// from zero at the critical efficiency to the maximum at zero success.
type StarvationMortality struct {
	max      []float64 // per step
	critical []float64
}

// NewStarvationMortality builds the starvation cause.
func NewStarvationMortality(cfg *config.Config, species []*biology.Species) (*StarvationMortality, error) {
	sm := &StarvationMortality{
		max:      make([]float64, len(species)),
		critical: make([]float64, len(species)),
	}
	for i, sp := range species {
		r := cfg.Species[i].Mortality.StarvationMax
		if err := checkRate(i, "mortality.starvation_max", r); err != nil {
			return nil, err
		}
		sm.max[i] = r / float64(cfg.Simulation.NStepYear)
		sm.critical[i] = sp.CriticalEfficiency
	}
	return sm, nil
}

func (sm *StarvationMortality) Cause() components.Cause { return components.CauseStarvation }

func (sm *StarvationMortality) Rate(s *components.School) float64 {
	i := s.Species.Index
	c := sm.critical[i]
	if c <= 0 || s.PredSuccess >= c {
		return 0
	}
	return sm.max[i] * (1 - s.PredSuccess/c)
}
