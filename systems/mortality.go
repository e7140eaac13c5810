package systems

import (
	"errors"
	"math"
	"math/rand"

	"github.com/pthm-cable/shoal/components"
)

// ConservationTolerance bounds the relative gap between a school's abundance
// loss over a step and the sum of its per-cause removals.
const ConservationTolerance = 1e-9

// MortalityCause is one source of mortality acting on schools.
// Rate returns the instantaneous rate over a whole time step; zero means
// the cause does not act on the school.
type MortalityCause interface {
	Cause() components.Cause
	Rate(s *components.School) float64
}

// Preparer is implemented by causes whose rates depend on the whole
// population. Prepare runs at the start of every sub-step, before schools
// are visited.
type Preparer interface {
	Prepare(schools []*components.School, nSubstep int)
}

// Recorder is implemented by causes that need to know what they removed.
type Recorder interface {
	Record(s *components.School, dead float64)
}

// Finisher is implemented by causes that derive state once the step is resolved.
type Finisher interface {
	Finish(schools []*components.School)
}

// MortalityEngine resolves competing mortality causes over a time step.
//
// The step is split into equal sub-steps. In each one, the rates of every
// cause acting on a school are summed, the school loses
// N * (1 - exp(-sum/nSubstep)) individuals, and that loss is shared between
// causes in proportion to their rates. Schools are visited in a fresh random
// order each sub-step; causes that implement Recorder may lower the rates
// seen by schools visited later in the same sub-step.
type MortalityEngine struct {
	causes   []MortalityCause
	nSubstep int

	// Scratch
	order []int
	rates []float64
}

// NewMortalityEngine creates an engine applying causes over nSubstep sub-steps.
func NewMortalityEngine(nSubstep int, causes ...MortalityCause) (*MortalityEngine, error) {
	if nSubstep < 1 {
		return nil, errors.New("mortality: at least one sub-step is required")
	}
	return &MortalityEngine{
		causes:   causes,
		nSubstep: nSubstep,
		rates:    make([]float64, len(causes)),
	}, nil
}

// Causes returns the configured causes.
func (m *MortalityEngine) Causes() []MortalityCause { return m.causes }

// Resolve applies one time step of mortality to schools. Per-cause removals
// are accumulated in School.Dead after a reset at the start of the step.
func (m *MortalityEngine) Resolve(schools []*components.School, rng *rand.Rand) {
	for _, s := range schools {
		s.ResetStep()
	}

	m.order = m.order[:0]
	for i := range schools {
		m.order = append(m.order, i)
	}

	n := float64(m.nSubstep)
	for sub := 0; sub < m.nSubstep; sub++ {
		for _, c := range m.causes {
			if p, ok := c.(Preparer); ok {
				p.Prepare(schools, m.nSubstep)
			}
		}
		if rng != nil {
			rng.Shuffle(len(m.order), func(i, j int) { m.order[i], m.order[j] = m.order[j], m.order[i] })
		}
		for _, idx := range m.order {
			m.applySubstep(schools[idx], n)
		}
	}

	for _, c := range m.causes {
		if f, ok := c.(Finisher); ok {
			f.Finish(schools)
		}
	}
}

func (m *MortalityEngine) applySubstep(s *components.School, n float64) {
	if !s.Alive() {
		return
	}

	var total float64
	for k, c := range m.causes {
		r := c.Rate(s)
		if r <= 0 || math.IsNaN(r) {
			r = 0
		}
		m.rates[k] = r
		total += r
	}
	if total == 0 {
		return
	}

	dead := s.Abundance * (1 - math.Exp(-total/n))
	for k, c := range m.causes {
		if m.rates[k] == 0 {
			continue
		}
		removed := s.Remove(c.Cause(), dead*m.rates[k]/total)
		if rec, ok := c.(Recorder); ok && removed > 0 {
			rec.Record(s, removed)
		}
	}
}

// FixedRate is a cause with a constant per-step rate per species.
// Zero rates leave the species untouched.
type FixedRate struct {
	cause components.Cause
	rates []float64 // per species, per step
}

// NewFixedRate returns a cause applying rates[species] each step.
func NewFixedRate(cause components.Cause, rates []float64) *FixedRate {
	return &FixedRate{cause: cause, rates: rates}
}

func (f *FixedRate) Cause() components.Cause { return f.cause }

func (f *FixedRate) Rate(s *components.School) float64 {
	return f.rates[s.Species.Index]
}
