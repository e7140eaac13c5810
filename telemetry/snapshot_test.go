package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/population"
)

func TestSnapshotSaveLoad(t *testing.T) {
	species := testSpecies(t)
	set := population.NewSchoolSet(len(species))
	set.Add(components.NewSchool(species[0], 1000, 8, 20))
	set.Add(components.NewSchool(species[2], 0, 30, 50)) // empty, not captured
	mature := components.NewSchool(species[1], 50, 18, 40)
	mature.Mature = true
	mature.GonadWeight = 2e-6
	set.Add(mature)

	snap := NewSnapshot(set, 119)
	snap.RunID = "test-run"
	snap.Seed = 42
	require.Len(t, snap.Schools, 2)

	dir := t.TempDir()
	path, err := SaveSnapshot(snap, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "snapshot_119.json"), path)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, SnapshotVersion, loaded.Version)
	require.Equal(t, snap, loaded)

	var sardine SchoolState
	for _, s := range loaded.Schools {
		if s.Species == "sardine" {
			sardine = s
		}
	}
	require.True(t, sardine.Mature)
	require.Equal(t, 40, sardine.AgeDt)
	require.InDelta(t, 2e-6, sardine.GonadWeight, 1e-18)
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
