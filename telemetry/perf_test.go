package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/shoal/systems"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(systems.PhaseMortality)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(systems.PhaseReproduction)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[systems.PhaseMortality]; !ok {
		t.Error("expected mortality phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[systems.PhaseReproduction]; !ok {
		t.Error("expected reproduction phase to be tracked")
	}

	row := stats.ToCSV(2, 47)
	if row.Replicate != 2 || row.Step != 47 {
		t.Errorf("csv row = %+v", row)
	}
	if row.ReproductionPct <= 0 {
		t.Error("expected reproduction share in csv row")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(systems.PhaseGrowth)
		time.Sleep(10 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase("fast")
		pc.StartPhase("slow")
		time.Sleep(5 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfStats_Breakdown(t *testing.T) {
	stats := PerfStats{PhasePct: map[string]float64{
		systems.PhaseMortality:    75,
		systems.PhaseReproduction: 25,
	}}

	want := "Mortality 75.0%, Growth 0.0%, Reproduction 25.0%, Cleanup 0.0%, Telemetry 0.0%"
	if got := stats.Breakdown(); got != want {
		t.Errorf("Breakdown() = %q, want %q", got, want)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}
