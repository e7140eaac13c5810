// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// A Config is built once and shared read-only by every replicate.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Genetics   GeneticsConfig   `yaml:"genetics"`
	Predation  PredationConfig  `yaml:"predation"`
	Fishing    FishingConfig    `yaml:"fishing"`
	Output     OutputConfig     `yaml:"output"`
	Species    []SpeciesConfig  `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds time discretisation and run parameters.
type SimulationConfig struct {
	NStepYear      int     `yaml:"n_step_year"`      // Time steps per year
	NYear          int     `yaml:"n_year"`           // Simulated years
	NSubstep       int     `yaml:"n_substep"`        // Mortality sub-steps per time step
	Replicates     int     `yaml:"replicates"`       // Independent stochastic runs
	Seed           int64   `yaml:"seed"`             // Base RNG seed (0 = time-based)
	Workers        int     `yaml:"workers"`          // Parallel replicates (0 = GOMAXPROCS)
	Bioenergetics  bool    `yaml:"bioenergetics"`    // Maturity governed by the physiology submodel
	SeedingYearMax float64 `yaml:"seeding_year_max"` // Spin-up horizon in years (0 = longest lifespan)
}

// GeneticsConfig holds the multi-locus genotype parameters.
type GeneticsConfig struct {
	Enabled      bool    `yaml:"enabled"`
	NLocus       int     `yaml:"n_locus"`
	NAllele      int     `yaml:"n_allele"`
	MutationRate float64 `yaml:"mutation_rate"` // Per allele per transmission
}

// PredationConfig points at the predator/prey accessibility table.
// Predation and starvation are disabled when AccessibilityFile is empty.
type PredationConfig struct {
	AccessibilityFile string `yaml:"accessibility_file"`
}

// FishingConfig points at the optional fishery x species catchability table.
type FishingConfig struct {
	CatchabilityFile string `yaml:"catchability_file"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Dir             string `yaml:"dir"`              // Empty disables CSV output
	RecordFrequency int    `yaml:"record_frequency"` // Steps between records
}

// SpeciesConfig holds the biological parameters of one species.
type SpeciesConfig struct {
	Name           string             `yaml:"name"`
	LifespanYears  float64            `yaml:"lifespan"`
	LengthToWeight AllometryConfig    `yaml:"length_to_weight"`
	EggSize        float64            `yaml:"egg_size"`        // cm
	EggWeight      float64            `yaml:"egg_weight"`      // g
	SizeMaturity   *float64           `yaml:"size_maturity"`   // cm
	AgeMaturity    *float64           `yaml:"age_maturity"`    // years
	LarvaAdultAge  *int               `yaml:"larva_adult_age"` // steps
	DepthLayer     *int               `yaml:"depth_layer"`
	Beta           *float64           `yaml:"beta"`            // Bioenergetic allometric exponent
	InitialBiomass float64            `yaml:"initial_biomass"` // t
	Growth         GrowthConfig       `yaml:"growth"`
	Reproduction   ReproductionConfig `yaml:"reproduction"`
	Mortality      MortalityConfig    `yaml:"mortality"`
	Trait          TraitConfig        `yaml:"trait"`
}

// AllometryConfig holds weight = C * length^B coefficients.
type AllometryConfig struct {
	C float64 `yaml:"c"`
	B float64 `yaml:"b"`
}

// GrowthConfig holds von Bertalanffy and gonad allocation parameters.
type GrowthConfig struct {
	Linf               float64 `yaml:"linf"` // cm
	K                  float64 `yaml:"k"`    // 1/year
	T0                 float64 `yaml:"t0"`   // years
	GSI                float64 `yaml:"gsi"`  // Gonad mass per unit body mass per year
	CriticalEfficiency float64 `yaml:"critical_efficiency"`
}

// ReproductionConfig holds per-species spawning parameters.
type ReproductionConfig struct {
	SexRatio       float64 `yaml:"sex_ratio"`
	EggsPerGram    float64 `yaml:"eggs_per_gram"`   // Relative fecundity of females
	SeedingBiomass float64 `yaml:"seeding_biomass"` // t, substituted for SSB during spin-up
	NSchool        int     `yaml:"n_school"`        // New schools per step
	SeasonFile     string  `yaml:"season_file"`     // Empty = uniform spawning
}

// MortalityConfig holds annual rates (per year) and feeding parameters.
// Unset optional rates are zero.
type MortalityConfig struct {
	Natural           float64 `yaml:"natural"`
	Larva             float64 `yaml:"larva"` // Per step
	Fishing           float64 `yaml:"fishing"`
	RecruitmentLength float64 `yaml:"recruitment_length"` // cm, knife-edge selectivity
	OutOfDomain       float64 `yaml:"out_of_domain"`
	StarvationMax     float64 `yaml:"starvation_max"`
	MaxIngestion      float64 `yaml:"max_ingestion"` // t prey / t predator / year
	SizeRatioMin      float64 `yaml:"size_ratio_min"`
	SizeRatioMax      float64 `yaml:"size_ratio_max"`
}

// TraitConfig holds the genotypic trait distribution used to draw allele values.
type TraitConfig struct {
	Mean float64 `yaml:"mean"`
	SD   float64 `yaml:"sd"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NStep         int            // NYear * NStepYear
	SeedingSteps  int            // Spin-up horizon in steps
	SpeciesIndex  map[string]int // name -> index
	LifespanSteps []int          // per species
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Validate checks the run-level parameters. Per-species biology is validated
// when species are built, so the offending key can be reported with its index.
func (c *Config) Validate() error {
	sim := c.Simulation
	if sim.NStepYear < 1 {
		return invalid("simulation.n_step_year", "must be at least 1")
	}
	if sim.NYear < 1 {
		return invalid("simulation.n_year", "must be at least 1")
	}
	if sim.NSubstep < 1 {
		return invalid("simulation.n_substep", "must be at least 1")
	}
	if sim.Replicates < 1 {
		return invalid("simulation.replicates", "must be at least 1")
	}
	if sim.SeedingYearMax < 0 {
		return invalid("simulation.seeding_year_max", "must not be negative")
	}
	if len(c.Species) == 0 {
		return invalid("species", "at least one species is required")
	}
	if c.Genetics.Enabled {
		if c.Genetics.NLocus < 1 {
			return invalid("genetics.n_locus", "must be at least 1")
		}
		if c.Genetics.NAllele < 1 {
			return invalid("genetics.n_allele", "must be at least 1")
		}
		if c.Genetics.MutationRate < 0 || c.Genetics.MutationRate > 1 {
			return invalid("genetics.mutation_rate", "must be in [0, 1]")
		}
	}
	seen := make(map[string]int, len(c.Species))
	for i, sp := range c.Species {
		if sp.Name == "" {
			return invalid(SpeciesKey(i, "name"), "required")
		}
		if j, dup := seen[sp.Name]; dup {
			return invalid(SpeciesKey(i, "name"), fmt.Sprintf("duplicates species %d", j))
		}
		seen[sp.Name] = i
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NStep = c.Simulation.NYear * c.Simulation.NStepYear
	if c.Output.RecordFrequency < 1 {
		c.Output.RecordFrequency = 1
	}

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	c.Derived.LifespanSteps = make([]int, len(c.Species))
	maxLifespan := 0.0
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.Name] = i
		c.Derived.LifespanSteps[i] = int(math.Round(sp.LifespanYears * float64(c.Simulation.NStepYear)))
		maxLifespan = math.Max(maxLifespan, sp.LifespanYears)
	}

	// Spin-up defaults to the longest lifespan, so every species gets a
	// full generation of seeding before it can collapse.
	seedingYears := c.Simulation.SeedingYearMax
	if seedingYears == 0 {
		seedingYears = maxLifespan
	}
	c.Derived.SeedingSteps = int(math.Round(seedingYears * float64(c.Simulation.NStepYear)))
}

// resolvePaths makes table paths relative to the config file's directory.
func (c *Config) resolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Predation.AccessibilityFile)
	resolve(&c.Fishing.CatchabilityFile)
	for i := range c.Species {
		resolve(&c.Species[i].Reproduction.SeasonFile)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
