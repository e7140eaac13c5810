package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/population"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population of one replicate at a given step.
type Snapshot struct {
	Version   int    `json:"version"`
	RunID     string `json:"run_id"`
	Replicate int    `json:"replicate"`
	Seed      int64  `json:"seed"`
	Step      int    `json:"step"`

	Schools []SchoolState `json:"schools"`
}

// SchoolState holds one school's state.
type SchoolState struct {
	Species     string  `json:"species"`
	Abundance   float64 `json:"abundance"`
	Length      float64 `json:"length"`
	Weight      float64 `json:"weight"`
	AgeDt       int     `json:"age_dt"`
	GonadWeight float64 `json:"gonad_weight"`
	Mature      bool    `json:"mature"`
	PredSuccess float64 `json:"pred_success"`
	Trait       float64 `json:"trait,omitempty"`
}

// NewSnapshot captures every living school of set.
func NewSnapshot(set *population.SchoolSet, step int) *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion, Step: step}
	for _, s := range set.All(nil) {
		if s.Alive() {
			snap.Schools = append(snap.Schools, schoolState(s))
		}
	}
	return snap
}

func schoolState(s *components.School) SchoolState {
	st := SchoolState{
		Species:     s.Species.Name,
		Abundance:   s.Abundance,
		Length:      s.Length,
		Weight:      s.Weight,
		AgeDt:       s.AgeDt,
		GonadWeight: s.GonadWeight,
		Mature:      s.Mature,
		PredSuccess: s.PredSuccess,
	}
	if s.Genotype != nil {
		st.Trait = s.Genotype.TraitValue()
	}
	return st
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Step))
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}
