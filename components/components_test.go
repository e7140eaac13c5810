package components

import (
	"math"
	"testing"

	"github.com/pthm-cable/shoal/biology"
)

func testSpecies() *biology.Species {
	return &biology.Species{Name: "anchovy", C: 0.0046, B: 3.1, NStepYear: 24}
}

func TestNewSchoolWeight(t *testing.T) {
	sp := testSpecies()
	s := NewSchool(sp, 1000, 12, 5)

	want := sp.WeightFromLength(12) / biology.GramsPerTonne
	if math.Abs(s.Weight-want) > 1e-15 {
		t.Errorf("Weight = %v, want %v", s.Weight, want)
	}
	if math.Abs(s.Biomass()-1000*want) > 1e-12 {
		t.Errorf("Biomass = %v, want %v", s.Biomass(), 1000*want)
	}
	if s.PredSuccess != 1 {
		t.Errorf("new schools should start satiated, PredSuccess = %v", s.PredSuccess)
	}
}

func TestRemoveNeverNegative(t *testing.T) {
	s := NewSchool(testSpecies(), 10, 5, 0)
	s.ResetStep()

	if got := s.Remove(CauseFishing, 4); got != 4 {
		t.Errorf("removed %v, want 4", got)
	}
	if got := s.Remove(CauseNatural, 100); got != 6 {
		t.Errorf("removed %v, want clamp to 6", got)
	}
	if s.Abundance != 0 || s.Alive() {
		t.Errorf("school should be empty, abundance = %v", s.Abundance)
	}
	if got := s.Remove(CauseNatural, 1); got != 0 {
		t.Errorf("removing from empty school returned %v", got)
	}
	if s.TotalDead() != 10 {
		t.Errorf("TotalDead = %v, want 10", s.TotalDead())
	}
	if s.StartAbundance != 10 {
		t.Errorf("StartAbundance = %v, want 10", s.StartAbundance)
	}
}

func TestCauseString(t *testing.T) {
	if CausePredation.String() != "predation" {
		t.Errorf("CausePredation.String() = %q", CausePredation.String())
	}
	if len(CauseNames()) != int(NumCauses) {
		t.Errorf("CauseNames has %d entries, want %d", len(CauseNames()), NumCauses)
	}
	if NumCauses.String() != "unknown" {
		t.Errorf("NumCauses.String() = %q, want unknown", NumCauses.String())
	}
}
