package systems

import (
	"fmt"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shoal/config"
)

// SeasonRow is one line of a spawning season file.
type SeasonRow struct {
	Step     int     `csv:"step"`
	Fraction float64 `csv:"fraction"`
}

// Season gives the fraction of the yearly spawning that happens at each
// step, per species. Series longer than a year repeat over the run.
type Season struct {
	fractions [][]float64 // [species][step in series]
}

// UniformSeason spreads spawning evenly over the year for every species.
func UniformSeason(nSpecies, nStepYear int) *Season {
	s := &Season{fractions: make([][]float64, nSpecies)}
	for i := range s.fractions {
		s.fractions[i] = uniform(nStepYear)
	}
	return s
}

func uniform(nStepYear int) []float64 {
	f := make([]float64, nStepYear)
	for j := range f {
		f[j] = 1 / float64(nStepYear)
	}
	return f
}

// LoadSeason reads each species' season file, or spawns uniformly when
// the species has none. Each year of a series is normalised to sum to one.
func LoadSeason(cfg *config.Config) (*Season, error) {
	nStepYear := cfg.Simulation.NStepYear
	s := &Season{fractions: make([][]float64, len(cfg.Species))}
	for i, sc := range cfg.Species {
		path := sc.Reproduction.SeasonFile
		if path == "" {
			s.fractions[i] = uniform(nStepYear)
			continue
		}
		rows, err := readSeasonFile(path)
		if err != nil {
			return nil, err
		}
		f, err := seasonSeries(rows, nStepYear)
		if err != nil {
			return nil, fmt.Errorf("season %s: %w", path, config.Invalid(config.SpeciesKey(i, "reproduction.season_file"), err.Error()))
		}
		s.fractions[i] = f
	}
	return s, nil
}

func readSeasonFile(path string) ([]SeasonRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening season file: %w", err)
	}
	defer f.Close()

	var rows []SeasonRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading season file %s: %w", path, err)
	}
	return rows, nil
}

// seasonSeries validates rows and returns the normalised fractions.
func seasonSeries(rows []SeasonRow, nStepYear int) ([]float64, error) {
	if len(rows) == 0 || len(rows)%nStepYear != 0 {
		return nil, fmt.Errorf("%d rows, want a multiple of %d steps per year", len(rows), nStepYear)
	}
	f := make([]float64, len(rows))
	for j, r := range rows {
		if r.Step != j {
			return nil, fmt.Errorf("row %d has step %d, want %d", j+1, r.Step, j)
		}
		if r.Fraction < 0 || r.Fraction > 1 || math.IsNaN(r.Fraction) {
			return nil, fmt.Errorf("step %d: fraction %g outside [0, 1]", r.Step, r.Fraction)
		}
		f[j] = r.Fraction
	}
	for start := 0; start < len(f); start += nStepYear {
		year := f[start : start+nStepYear]
		var sum float64
		for _, v := range year {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for j := range year {
			year[j] /= sum
		}
	}
	return f, nil
}

// Fraction returns the spawning fraction of species at step.
func (s *Season) Fraction(step, species int) float64 {
	f := s.fractions[species]
	return f[step%len(f)]
}
