package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/lookup"
)

// ---------- NaturalMortality ----------

func TestNaturalMortality_LarvaAndAdult(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)
	nm, err := NewNaturalMortality(cfg, species)
	require.NoError(t, err)

	anchovy := species[0]
	larva := components.NewSchool(anchovy, 1, anchovy.EggSize, 0)
	adult := components.NewSchool(anchovy, 1, 12, 30)
	require.InDelta(t, 1.2, nm.Rate(&larva), 1e-12, "larval rate is per step")
	require.InDelta(t, 0.8/24, nm.Rate(&adult), 1e-12)

	// hake stays larval for two steps
	hake := species[2]
	young := components.NewSchool(hake, 1, hake.EggSize, 1)
	require.InDelta(t, 1.5, nm.Rate(&young), 1e-12)
	older := components.NewSchool(hake, 1, 1, 2)
	require.InDelta(t, 0.3/24, nm.Rate(&older), 1e-12)
}

func TestNaturalMortality_InvalidRate(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)
	cfg.Species[1].Mortality.Natural = -0.1

	_, err := NewNaturalMortality(cfg, species)
	require.ErrorIs(t, err, config.ErrInvalidParameter)
	var ke *config.KeyError
	require.True(t, errors.As(err, &ke))
	require.Equal(t, "species[1].mortality.natural", ke.Key)
}

// ---------- OutOfDomain ----------

func TestOutOfDomainMortality(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)
	od, err := NewOutOfDomainMortality(cfg, species)
	require.NoError(t, err)
	require.Equal(t, components.CauseOutOfDomain, od.Cause())

	sardine := components.NewSchool(species[1], 10, 15, 40)
	require.InDelta(t, 0.05/24, od.Rate(&sardine), 1e-12)
	anchovy := components.NewSchool(species[0], 10, 15, 40)
	require.Zero(t, od.Rate(&anchovy))

	cfg.Species[0].Mortality.OutOfDomain = math.NaN()
	_, err = NewOutOfDomainMortality(cfg, species)
	require.ErrorIs(t, err, config.ErrInvalidParameter)
}

// ---------- FishingMortality ----------

func TestFishingMortality_KnifeEdge(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)
	fm, err := NewFishingMortality(cfg, species, nil)
	require.NoError(t, err)

	small := components.NewSchool(species[0], 10, 5, 20)
	large := components.NewSchool(species[0], 10, 10, 40)
	require.Zero(t, fm.Rate(&small), "below recruitment length")
	require.InDelta(t, 0.4/24, fm.Rate(&large), 1e-12)
}

func TestFishingMortality_CatchabilityTable(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)

	rows := lookup.Axis{{Name: "trawl", Threshold: math.Inf(1)}, {Name: "seine", Threshold: math.Inf(1)}}
	cols := lookup.Axis{
		{Name: "anchovy", Threshold: 1},
		{Name: "anchovy", Threshold: math.Inf(1)},
		{Name: "sardine", Threshold: math.Inf(1)},
		{Name: "hake", Threshold: math.Inf(1)},
	}
	catch, err := lookup.NewMatrix(rows, cols, []float64{
		0.0, 0.5, 0.2, 1.0,
		0.1, 0.5, 0.6, 0.0,
	})
	require.NoError(t, err)

	fm, err := NewFishingMortality(cfg, species, catch)
	require.NoError(t, err)

	juvenile := components.NewSchool(species[0], 10, 5, 12) // 0.5 years
	adult := components.NewSchool(species[0], 10, 5, 30)    // 1.25 years
	require.InDelta(t, 0.4/24*0.1, fm.Rate(&juvenile), 1e-12)
	require.InDelta(t, 0.4/24*1.0, fm.Rate(&adult), 1e-12, "selectivity sums every fishery")
}

func TestFishingMortality_MissingSpecies(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)

	catch, err := lookup.NewMatrix(
		lookup.Axis{{Name: "trawl", Threshold: math.Inf(1)}},
		lookup.Axis{{Name: "anchovy", Threshold: math.Inf(1)}},
		[]float64{1},
	)
	require.NoError(t, err)

	_, err = NewFishingMortality(cfg, species, catch)
	require.ErrorIs(t, err, lookup.ErrLookupNotFound)
}

// ---------- StarvationMortality ----------

func TestStarvationMortality(t *testing.T) {
	cfg := testConfig(t)
	species := testSpecies(t, cfg)
	sm, err := NewStarvationMortality(cfg, species)
	require.NoError(t, err)

	s := components.NewSchool(species[0], 10, 10, 30)
	s.PredSuccess = 1
	require.Zero(t, sm.Rate(&s))

	s.PredSuccess = 0.57
	require.Zero(t, sm.Rate(&s), "critical efficiency itself is not starving")

	s.PredSuccess = 0.285
	require.InDelta(t, 0.3/24*0.5, sm.Rate(&s), 1e-12)

	s.PredSuccess = 0
	require.InDelta(t, 0.3/24, sm.Rate(&s), 1e-12)
}
