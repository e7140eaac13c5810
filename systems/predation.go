package systems

import (
	"fmt"

	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/lookup"
)

// Predation turns every school into a predator of the schools it can
// access. A predator demands maxIngestion times its biomass per step and
// spreads that demand over accessible prey in proportion to their
// accessible biomass. The resulting hazard on each prey is the sum of the
// demands placed on it, per unit of its biomass.
//
// Each sub-step a predator eats at most its demand for that sub-step. What
// it has eaten is taken off the demand it still places on prey visited
// later, so prey met early in the sub-step's order bear more of the
// predation than prey met late.
//
// Accessibility rows are prey and columns are predators, both classed by
// age in years. A prey is also only accessible when the predator/prey
// length ratio lies in [sizeRatioMin, sizeRatioMax).
type Predation struct {
	access   *lookup.Matrix
	demand   []float64 // t prey per t predator per step
	ratioMin []float64
	ratioMax []float64
	preyRow  [][]int // [species][ageDt]
	predCol  [][]int // [species][ageDt]

	// Rebuilt each sub-step
	nSubstep   float64
	index      map[*components.School]int
	remaining  []float64    // [predator school] demand left in the sub-step (t)
	links      [][]predLink // [prey school]
	candidates []preyCandidate
}

type predLink struct {
	pred *components.School
	k    int     // predator's school index
	coef float64 // accessibility over the predator's accessible biomass (1/t)
}

type preyCandidate struct {
	prey   int
	access float64
}

// NewPredation resolves the accessibility class of every species and age.
// A species or age class missing from the table is an error.
func NewPredation(cfg *config.Config, species []*biology.Species, access *lookup.Matrix) (*Predation, error) {
	p := &Predation{
		access:   access,
		demand:   make([]float64, len(species)),
		ratioMin: make([]float64, len(species)),
		ratioMax: make([]float64, len(species)),
		preyRow:  make([][]int, len(species)),
		predCol:  make([][]int, len(species)),
		index:    make(map[*components.School]int),
	}
	for i, sp := range species {
		mc := cfg.Species[i].Mortality
		if err := checkRate(i, "mortality.max_ingestion", mc.MaxIngestion); err != nil {
			return nil, err
		}
		if mc.SizeRatioMin < 0 {
			return nil, config.Invalid(config.SpeciesKey(i, "mortality.size_ratio_min"), "must not be negative")
		}
		if mc.SizeRatioMax <= mc.SizeRatioMin {
			return nil, config.Invalid(config.SpeciesKey(i, "mortality.size_ratio_max"), "must exceed size_ratio_min")
		}
		p.demand[i] = mc.MaxIngestion / float64(cfg.Simulation.NStepYear)
		p.ratioMin[i] = mc.SizeRatioMin
		p.ratioMax[i] = mc.SizeRatioMax

		p.preyRow[i] = make([]int, sp.Lifespan+1)
		p.predCol[i] = make([]int, sp.Lifespan+1)
		for age := 0; age <= sp.Lifespan; age++ {
			years := sp.AgeYears(age)
			row, err := access.Rows.IndexOf(sp.Name, years, lookup.StrictlyAbove)
			if err != nil {
				return nil, fmt.Errorf("accessibility %s prey: %w", access.Path, err)
			}
			col, err := access.Cols.IndexOf(sp.Name, years, lookup.StrictlyAbove)
			if err != nil {
				return nil, fmt.Errorf("accessibility %s predator: %w", access.Path, err)
			}
			p.preyRow[i][age] = row
			p.predCol[i][age] = col
		}
	}
	return p, nil
}

func (p *Predation) Cause() components.Cause { return components.CausePredation }

// Accessibility returns the fraction of prey's biomass that pred can reach.
func (p *Predation) Accessibility(pred, prey *components.School) float64 {
	i, j := pred.Species.Index, prey.Species.Index
	ratio := pred.Length / prey.Length
	if ratio < p.ratioMin[i] || ratio >= p.ratioMax[i] {
		return 0
	}
	row := p.preyRow[j][min(prey.AgeDt, len(p.preyRow[j])-1)]
	col := p.predCol[i][min(pred.AgeDt, len(p.predCol[i])-1)]
	return p.access.At(row, col)
}

// Prepare distributes every predator's demand for the sub-step over its
// accessible prey.
func (p *Predation) Prepare(schools []*components.School, nSubstep int) {
	p.nSubstep = float64(nSubstep)
	clear(p.index)
	p.remaining = resize(p.remaining, len(schools))
	if cap(p.links) < len(schools) {
		p.links = make([][]predLink, len(schools))
	}
	p.links = p.links[:len(schools)]
	for i, s := range schools {
		p.index[s] = i
		p.remaining[i] = 0
		p.links[i] = p.links[i][:0]
	}

	for k, pred := range schools {
		if !pred.Alive() {
			continue
		}
		demand := p.demand[pred.Species.Index] * pred.Biomass()
		if demand == 0 {
			continue
		}

		var available float64
		p.candidates = p.candidates[:0]
		for j, prey := range schools {
			if prey == pred || !prey.Alive() {
				continue
			}
			a := p.Accessibility(pred, prey)
			if a == 0 {
				continue
			}
			available += a * prey.Biomass()
			p.candidates = append(p.candidates, preyCandidate{prey: j, access: a})
		}
		if available == 0 {
			continue
		}

		pred.Foraged = true
		p.remaining[k] = demand / p.nSubstep
		for _, c := range p.candidates {
			p.links[c.prey] = append(p.links[c.prey], predLink{pred: pred, k: k, coef: c.access / available})
		}
	}
}

// Rate is the per-step hazard the predators of s would impose if they kept
// their current remaining demand for the whole step.
func (p *Predation) Rate(s *components.School) float64 {
	i, ok := p.index[s]
	if !ok {
		return 0
	}
	return p.pressure(i) * p.nSubstep
}

func (p *Predation) pressure(i int) float64 {
	var sum float64
	for _, l := range p.links[i] {
		sum += p.remaining[l.k] * l.coef
	}
	return sum
}

// Record credits the eaten biomass to the predators in proportion to the
// pressure each of them put on the prey, and takes it off their remaining
// demand for the sub-step.
func (p *Predation) Record(s *components.School, dead float64) {
	i, ok := p.index[s]
	if !ok {
		return
	}
	total := p.pressure(i)
	if total == 0 {
		return
	}
	eaten := dead * s.Weight
	for _, l := range p.links[i] {
		share := eaten * p.remaining[l.k] * l.coef / total
		l.pred.Ingested += share
		p.remaining[l.k] = max(0, p.remaining[l.k]-share)
	}
}

// Finish sets each school's predation success: ingestion over demand at the
// biomass it had when the step started. Larvae and schools that found no
// accessible prey feed outside the modelled community and count as
// satiated.
func (p *Predation) Finish(schools []*components.School) {
	for _, s := range schools {
		demand := p.demand[s.Species.Index] * s.StartAbundance * s.Weight
		if demand == 0 || !s.Foraged || s.AgeDt < s.Species.LarvaAdultAge {
			s.PredSuccess = 1
			continue
		}
		s.PredSuccess = min(1, s.Ingested/demand)
	}
}

func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
