package systems

import (
	"math"

	"github.com/pthm-cable/shoal/components"
)

// Growth applies von Bertalanffy growth to fed schools, updates maturity and
// fills the gonads of mature schools.
type Growth struct {
	nStepYear     float64
	bioenergetics bool
}

// NewGrowth creates the growth step.
func NewGrowth(nStepYear int, bioenergetics bool) *Growth {
	return &Growth{nStepYear: float64(nStepYear), bioenergetics: bioenergetics}
}

// Step grows every living school by one time step.
// Schools whose predation success fell below the critical efficiency do not
// grow. In bioenergetics mode the maturity flag is left to the physiology
// submodel.
func (g *Growth) Step(schools []*components.School) {
	for _, s := range schools {
		if !s.Alive() {
			continue
		}
		sp := s.Species

		if s.PredSuccess >= sp.CriticalEfficiency {
			dl := (sp.Linf - s.Length) * (1 - math.Exp(-sp.K/g.nStepYear))
			if dl > 0 {
				s.SetLength(s.Length + dl)
			}
		}

		if !g.bioenergetics {
			// IsMature only fails in bioenergetics mode
			s.Mature, _ = sp.IsMature(s.Length, s.AgeDt)
		}
		if s.Mature {
			s.GonadWeight += sp.GSI * s.Weight / g.nStepYear
		}
	}
}
