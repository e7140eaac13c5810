// Package components defines the ECS components for the simulation.
package components

import (
	"math/rand"

	"github.com/pthm-cable/shoal/biology"
)

// Genotype is the opaque genetic payload carried by a school.
type Genotype interface {
	// TraitValue returns the genotypic value of the expressed trait.
	TraitValue() float64
}

// Inheritance creates genotypes for new schools.
type Inheritance interface {
	// Init draws an independent genotype with no parentage.
	Init(rng *rand.Rand, species int) Genotype
	// Combine transmits one gamete from each parent into a child genotype.
	Combine(rng *rand.Rand, species int, mother, father Genotype) Genotype
}

// School is a cohort of same-age, same-species individuals.
// Weights are per individual, in tonnes.
type School struct {
	Species     *biology.Species
	Abundance   float64
	Length      float64 // cm
	Weight      float64 // t
	AgeDt       int     // Time steps
	GonadWeight float64 // t
	Mature      bool
	Genotype    Genotype

	// Per-step accumulators, reset by ResetStep
	StartAbundance float64
	Dead           [NumCauses]float64 // Individuals removed per cause
	Ingested       float64            // Prey biomass eaten (t)
	Foraged        bool               // Had accessible prey in some sub-step

	// PredSuccess is ingestion over demand in the previous step (1 = satiated).
	PredSuccess float64
}

// NewSchool returns a school of abundance individuals of the given length.
func NewSchool(sp *biology.Species, abundance, length float64, ageDt int) School {
	s := School{
		Species:     sp,
		Abundance:   abundance,
		AgeDt:       ageDt,
		PredSuccess: 1,
	}
	s.SetLength(length)
	return s
}

// SetLength updates length and the allometric weight.
func (s *School) SetLength(length float64) {
	s.Length = length
	s.Weight = s.Species.WeightFromLength(length) / biology.GramsPerTonne
}

// Biomass returns the instantaneous biomass in tonnes.
func (s *School) Biomass() float64 {
	return s.Abundance * s.Weight
}

// Alive reports whether the school still holds individuals.
func (s *School) Alive() bool {
	return s.Abundance > 0
}

// ResetStep clears the per-step accumulators.
func (s *School) ResetStep() {
	s.StartAbundance = s.Abundance
	s.Dead = [NumCauses]float64{}
	s.Ingested = 0
	s.Foraged = false
}

// TotalDead returns the individuals removed this step across all causes.
func (s *School) TotalDead() float64 {
	var sum float64
	for _, d := range s.Dead {
		sum += d
	}
	return sum
}

// Remove takes n individuals out of the school for cause, never below zero.
// It returns the number actually removed.
func (s *School) Remove(cause Cause, n float64) float64 {
	if n > s.Abundance {
		n = s.Abundance
	}
	if n <= 0 {
		return 0
	}
	s.Abundance -= n
	s.Dead[cause] += n
	return n
}
