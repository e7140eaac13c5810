package telemetry

import (
	"github.com/pthm-cable/shoal/biology"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/population"
	"github.com/pthm-cable/shoal/systems"
)

// Collector accumulates mortality and spawning between record steps and
// produces one SpeciesStats row per species when flushed.
type Collector struct {
	species   []*biology.Species
	replicate int
	frequency int // steps between records

	// Accumulated since the last flush, per species
	dead   [][components.NumCauses]float64
	eggs   []float64
	births []int
	spinUp []bool
	ssb    []float64

	// Scratch
	buf     []*components.School
	lengths []float64
	traits  []float64
	weights []float64
}

// NewCollector creates a collector for one replicate recording every
// frequency steps.
func NewCollector(species []*biology.Species, replicate, frequency int) *Collector {
	if frequency < 1 {
		frequency = 1
	}
	return &Collector{
		species:   species,
		replicate: replicate,
		frequency: frequency,
		dead:      make([][components.NumCauses]float64, len(species)),
		eggs:      make([]float64, len(species)),
		births:    make([]int, len(species)),
		spinUp:    make([]bool, len(species)),
		ssb:       make([]float64, len(species)),
	}
}

// RecordMortality adds the step's per-cause removals of every school.
func (c *Collector) RecordMortality(schools []*components.School) {
	for _, s := range schools {
		d := &c.dead[s.Species.Index]
		for k, n := range s.Dead {
			d[k] += n
		}
	}
}

// RecordSpawn adds the step's reproduction results.
func (c *Collector) RecordSpawn(results []systems.SpawnResult) {
	for _, r := range results {
		c.eggs[r.Species] += r.Eggs
		c.births[r.Species] += r.NewSchools
		c.spinUp[r.Species] = c.spinUp[r.Species] || r.SpinUp
		c.ssb[r.Species] = r.SSB
	}
}

// ShouldFlush reports whether step is a record step. The last step of
// a run is always recorded.
func (c *Collector) ShouldFlush(step, nStep int) bool {
	return (step+1)%c.frequency == 0 || step == nStep-1
}

// Flush builds the stats of every species at step and resets the
// accumulators for the next window.
func (c *Collector) Flush(set *population.SchoolSet, step int) []SpeciesStats {
	rows := make([]SpeciesStats, len(c.species))
	for i, sp := range c.species {
		c.buf = set.Species(i, c.buf[:0])
		c.lengths = c.lengths[:0]
		c.traits = c.traits[:0]
		c.weights = c.weights[:0]

		row := SpeciesStats{
			Replicate: c.replicate,
			Step:      step,
			Year:      sp.AgeYears(step + 1),
			Species:   sp.Name,
			SSB:       c.ssb[i],
		}
		withGenotype := true
		for _, s := range c.buf {
			if !s.Alive() {
				continue
			}
			row.Schools++
			row.Abundance += s.Abundance
			row.Biomass += s.Biomass()
			c.lengths = append(c.lengths, s.Length)
			c.weights = append(c.weights, s.Abundance)
			if s.Genotype == nil {
				withGenotype = false
			} else {
				c.traits = append(c.traits, s.Genotype.TraitValue())
			}
		}
		if withGenotype {
			row.TraitMean, row.TraitStd = ComputeTraitStats(c.traits, c.weights)
		}
		row.LengthMean, row.LengthP10, row.LengthP50, row.LengthP90 = ComputeLengthStats(c.lengths, c.weights)

		d := c.dead[i]
		row.DeadNatural = d[components.CauseNatural]
		row.DeadPredation = d[components.CausePredation]
		row.DeadStarvation = d[components.CauseStarvation]
		row.DeadFishing = d[components.CauseFishing]
		row.DeadOutOfDomain = d[components.CauseOutOfDomain]
		row.Eggs = c.eggs[i]
		row.NewSchools = c.births[i]
		row.SpinUp = c.spinUp[i]
		rows[i] = row
	}

	clear(c.dead)
	clear(c.eggs)
	clear(c.births)
	clear(c.spinUp)
	return rows
}
