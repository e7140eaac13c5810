package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpeciesStats holds one species' state at a record step, plus the
// mortality and spawning accumulated since the previous record.
type SpeciesStats struct {
	Replicate int     `csv:"replicate"`
	Step      int     `csv:"step"`
	Year      float64 `csv:"year"`
	Species   string  `csv:"species"`

	// Population at the record step
	Schools   int     `csv:"schools"`
	Abundance float64 `csv:"abundance"`
	Biomass   float64 `csv:"biomass"` // t
	SSB       float64 `csv:"ssb"`     // t, from the last reproduction phase

	// Abundance-weighted length distribution (cm)
	LengthMean float64 `csv:"length_mean"`
	LengthP10  float64 `csv:"length_p10"`
	LengthP50  float64 `csv:"length_p50"`
	LengthP90  float64 `csv:"length_p90"`

	// Abundance-weighted genotypic trait (0 without genetics)
	TraitMean float64 `csv:"trait_mean"`
	TraitStd  float64 `csv:"trait_std"`

	// Individuals removed since the previous record
	DeadNatural     float64 `csv:"dead_natural"`
	DeadPredation   float64 `csv:"dead_predation"`
	DeadStarvation  float64 `csv:"dead_starvation"`
	DeadFishing     float64 `csv:"dead_fishing"`
	DeadOutOfDomain float64 `csv:"dead_out_of_domain"`

	// Spawning since the previous record
	Eggs       float64 `csv:"eggs"`
	NewSchools int     `csv:"new_schools"`
	SpinUp     bool    `csv:"spin_up"`
}

// Percentile returns the p-th weighted quantile of x, p in [0, 1].
// x and weights are sorted together in place. Returns 0 for empty input.
func Percentile(x, weights []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	if !sort.Float64sAreSorted(x) {
		stat.SortWeighted(x, weights)
	}
	switch {
	case p <= 0:
		return x[0]
	case p >= 1:
		return x[len(x)-1]
	}
	return stat.Quantile(p, stat.Empirical, x, weights)
}

// ComputeLengthStats returns the weighted mean and 10/50/90th percentiles.
func ComputeLengthStats(lengths, weights []float64) (mean, p10, p50, p90 float64) {
	if len(lengths) == 0 || sum(weights) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(lengths, weights)
	p10 = Percentile(lengths, weights, 0.10)
	p50 = Percentile(lengths, weights, 0.50)
	p90 = Percentile(lengths, weights, 0.90)
	return mean, p10, p50, p90
}

// ComputeTraitStats returns the weighted mean and standard deviation.
func ComputeTraitStats(values, weights []float64) (mean, std float64) {
	if len(values) == 0 || sum(weights) == 0 {
		return 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, weights)
	return mean, std
}

func sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpeciesStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("year", s.Year),
		slog.String("species", s.Species),
		slog.Int("schools", s.Schools),
		slog.Float64("abundance", s.Abundance),
		slog.Float64("biomass", s.Biomass),
		slog.Float64("ssb", s.SSB),
		slog.Float64("length_mean", s.LengthMean),
		slog.Float64("trait_mean", s.TraitMean),
		slog.Float64("eggs", s.Eggs),
		slog.Bool("spin_up", s.SpinUp),
	)
}
