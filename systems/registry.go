package systems

// Step phase identifiers, in execution order.
const (
	PhaseMortality    = "mortality"
	PhaseGrowth       = "growth"
	PhaseReproduction = "reproduction"
	PhaseCleanup      = "cleanup"
	PhaseTelemetry    = "telemetry"
)

// SystemInfo describes a step phase.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this phase does
}

// SystemRegistry holds metadata about all step phases.
// This centralizes naming so the perf tracker and its output stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known phases to the registry.
// Update this when adding new phases.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: PhaseMortality, Name: "Mortality", Description: "Resolves competing mortality causes over sub-steps"})
	r.Register(SystemInfo{ID: PhaseGrowth, Name: "Growth", Description: "Grows schools and fills gonads"})
	r.Register(SystemInfo{ID: PhaseReproduction, Name: "Reproduction", Description: "Ages schools, computes SSB and spawns new schools"})
	r.Register(SystemInfo{ID: PhaseCleanup, Name: "Cleanup", Description: "Removes empty and over-age schools"})
	r.Register(SystemInfo{ID: PhaseTelemetry, Name: "Telemetry", Description: "Aggregates per-species statistics"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
