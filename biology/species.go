// Package biology holds the immutable per-species parameters and the
// allometric relationships derived from them.
package biology

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/shoal/config"
)

// GramsPerTonne converts species-level weights (g) to school-level weights (t).
const GramsPerTonne = 1e6

// ErrUnsupportedMode is returned by operations that another submodel owns
// in the current mode, e.g. maturity while bioenergetics is enabled.
var ErrUnsupportedMode = errors.New("biology: not supported in this mode")

// Species holds the biological parameters of one species.
// A Species is built once per replicate and never mutated.
type Species struct {
	Index       int // Position in the configured species list
	GlobalIndex int // Index across sub-populations
	Name        string

	Lifespan      int     // Time steps
	C, B          float64 // weight (g) = C * length (cm) ^ B
	EggSize       float64 // cm
	EggWeight     float64 // g
	SizeMaturity  float64 // cm, +Inf when maturity is age-based
	AgeMaturity   float64 // Time steps, +Inf when maturity is size-based
	LarvaAdultAge int     // Time steps spent as larva
	DepthLayer    int
	Beta          float64

	// Growth
	Linf, K, T0        float64
	GSI                float64
	CriticalEfficiency float64

	NStepYear     int
	Bioenergetics bool
}

// New builds species index from its configuration. Errors are *config.KeyError
// values naming the offending key.
func New(index, globalIndex int, sc config.SpeciesConfig, nStepYear int, bioen bool) (*Species, error) {
	key := func(k string) string { return config.SpeciesKey(index, k) }

	if sc.Name == "" {
		return nil, config.Invalid(key("name"), "required")
	}
	if sc.LengthToWeight.C <= 0 {
		return nil, config.Invalid(key("length_to_weight.c"), "must be positive")
	}
	if sc.LengthToWeight.B <= 0 {
		return nil, config.Invalid(key("length_to_weight.b"), "must be positive")
	}
	if sc.LifespanYears <= 0 {
		return nil, config.Invalid(key("lifespan"), "must be positive")
	}
	if sc.EggWeight <= 0 {
		return nil, config.Invalid(key("egg_weight"), "must be positive")
	}
	if !bioen && sc.EggSize <= 0 {
		return nil, config.Invalid(key("egg_size"), "must be positive")
	}

	s := &Species{
		Index:              index,
		GlobalIndex:        globalIndex,
		Name:               sc.Name,
		Lifespan:           int(math.Round(sc.LifespanYears * float64(nStepYear))),
		C:                  sc.LengthToWeight.C,
		B:                  sc.LengthToWeight.B,
		EggSize:            sc.EggSize,
		EggWeight:          sc.EggWeight,
		SizeMaturity:       math.Inf(1),
		AgeMaturity:        math.Inf(1),
		LarvaAdultAge:      1,
		Linf:               sc.Growth.Linf,
		K:                  sc.Growth.K,
		T0:                 sc.Growth.T0,
		GSI:                sc.Growth.GSI,
		CriticalEfficiency: sc.Growth.CriticalEfficiency,
		NStepYear:          nStepYear,
		Bioenergetics:      bioen,
	}

	if sc.LarvaAdultAge != nil {
		if *sc.LarvaAdultAge < 0 {
			return nil, config.Invalid(key("larva_adult_age"), "must not be negative")
		}
		s.LarvaAdultAge = *sc.LarvaAdultAge
	}
	if sc.DepthLayer != nil {
		s.DepthLayer = *sc.DepthLayer
	}
	if sc.Growth.Linf <= 0 {
		return nil, config.Invalid(key("growth.linf"), "must be positive")
	}
	if sc.Growth.K < 0 {
		return nil, config.Invalid(key("growth.k"), "must not be negative")
	}
	if sc.Growth.GSI < 0 {
		return nil, config.Invalid(key("growth.gsi"), "must not be negative")
	}

	if bioen {
		// Maturity comes from the physiology submodel; both thresholds stay unreachable.
		if sc.Beta == nil {
			return nil, config.Invalid(key("beta"), "required when bioenergetics is enabled")
		}
		s.Beta = *sc.Beta
		return s, nil
	}

	switch {
	case sc.SizeMaturity != nil && sc.AgeMaturity != nil:
		return nil, config.Invalid(key("size_maturity"), "mutually exclusive with age_maturity")
	case sc.SizeMaturity != nil:
		if *sc.SizeMaturity <= 0 {
			return nil, config.Invalid(key("size_maturity"), "must be positive")
		}
		s.SizeMaturity = *sc.SizeMaturity
	case sc.AgeMaturity != nil:
		if *sc.AgeMaturity < 0 {
			return nil, config.Invalid(key("age_maturity"), "must not be negative")
		}
		s.AgeMaturity = math.Round(*sc.AgeMaturity * float64(nStepYear))
	default:
		return nil, config.Invalid(key("size_maturity"), "either size_maturity or age_maturity is required")
	}
	if sc.Beta != nil {
		s.Beta = *sc.Beta
	}
	return s, nil
}

// NewAll builds every configured species.
func NewAll(cfg *config.Config) ([]*Species, error) {
	species := make([]*Species, len(cfg.Species))
	for i, sc := range cfg.Species {
		s, err := New(i, i, sc, cfg.Simulation.NStepYear, cfg.Simulation.Bioenergetics)
		if err != nil {
			return nil, err
		}
		species[i] = s
	}
	return species, nil
}

// WeightFromLength returns the weight in grams of an individual of length cm.
func (s *Species) WeightFromLength(length float64) float64 {
	return s.C * math.Pow(length, s.B)
}

// LengthFromWeight returns the length in cm of an individual of weight grams.
func (s *Species) LengthFromWeight(weight float64) float64 {
	return math.Pow(weight/s.C, 1/s.B)
}

// IsMature reports whether an individual of the given length (cm) and age
// (time steps) is mature.
func (s *Species) IsMature(length float64, ageDt int) (bool, error) {
	if s.Bioenergetics {
		return false, fmt.Errorf("species %s maturity: %w", s.Name, ErrUnsupportedMode)
	}
	if !math.IsInf(s.SizeMaturity, 1) {
		return length >= s.SizeMaturity, nil
	}
	return float64(ageDt) >= s.AgeMaturity, nil
}

// EggSizeForMode returns the length of a newly spawned individual.
func (s *Species) EggSizeForMode() float64 {
	if s.Bioenergetics {
		return s.LengthFromWeight(s.EggWeight)
	}
	return s.EggSize
}

// AgeYears converts an age in time steps to years.
func (s *Species) AgeYears(ageDt int) float64 {
	return float64(ageDt) / float64(s.NStepYear)
}

// LengthAtAge returns the von Bertalanffy length (cm) at ageYears.
func (s *Species) LengthAtAge(ageYears float64) float64 {
	l := s.Linf * (1 - math.Exp(-s.K*(ageYears-s.T0)))
	return math.Max(l, s.EggSizeForMode())
}

func (s *Species) String() string {
	return fmt.Sprintf("%s(%d)", s.Name, s.Index)
}
