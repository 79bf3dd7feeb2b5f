// Package config provides configuration loading and access for the controller
// and the demo arena.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all runtime configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Population PopulationConfig `yaml:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Arena      ArenaConfig      `yaml:"arena"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the windowed viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PopulationConfig holds genome population parameters.
type PopulationConfig struct {
	Size           int     `yaml:"size"`            // number of organisms (and brains)
	Inputs         int     `yaml:"inputs"`          // sensor inputs per brain network
	Outputs        int     `yaml:"outputs"`         // actuator outputs per brain network
	ConnectionProb float64 `yaml:"connection_prob"` // initial input-output connectivity
	WeightNoise    float64 `yaml:"weight_noise"`    // sigma of initial weight perturbation
}

// EvolutionConfig holds steady-state replacement parameters.
type EvolutionConfig struct {
	TimeAliveMinimum  int     `yaml:"time_alive_minimum"`             // ticks before an organism is judged
	MinTicksBetween   int     `yaml:"min_ticks_between_evolutions"`   // rate limit between replacement cycles
	MinDeletions      int     `yaml:"min_deletions_before_evolution"` // attrition required before first cycle
	TargetSpecies     int     `yaml:"target_species"`                 // speciation tuning target
	CompatStep        float64 `yaml:"compat_step"`                    // threshold adjustment per tuning event
	CompatFloor       float64 `yaml:"compat_floor"`                   // hard lower bound on the threshold
	SmitePenalty      float64 `yaml:"smite_penalty"`                  // fitness multiplier for smited organisms
	RunningAvgSamples int     `yaml:"running_average_samples"`        // window for the brain trial average
	TrialLength       int     `yaml:"trial_length"`                   // ticks per evaluation trial (0 = single trial)
}

// ArenaConfig holds demo host-simulation parameters.
type ArenaConfig struct {
	Width         int     `yaml:"width"`          // world width in world units
	Height        int     `yaml:"height"`         // world height in world units
	InitialActors int     `yaml:"initial_actors"` // actors spawned at startup
	MaxActors     int     `yaml:"max_actors"`     // spawn ceiling
	SpawnInterval int     `yaml:"spawn_interval"` // ticks between respawn attempts
	InitialEnergy float64 `yaml:"initial_energy"`
	BaseCost      float64 `yaml:"base_cost"`   // energy drain per second
	MoveCost      float64 `yaml:"move_cost"`   // extra drain per unit of thrust
	ForageRate    float64 `yaml:"forage_rate"` // energy gain per second at full resource density
	MaxSpeed      float64 `yaml:"max_speed"`
	MaxTurnRate   float64 `yaml:"max_turn_rate"`
	Hotspots      int     `yaml:"hotspots"` // resource field Gaussian centers
	DT            float64 `yaml:"dt"`       // seconds per tick
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // window length in simulation seconds
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32     float32 // Arena.DT as float32
	WorldW32 float32 // Arena.Width as float32
	WorldH32 float32 // Arena.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Arena.DT)
	c.Derived.WorldW32 = float32(c.Arena.Width)
	c.Derived.WorldH32 = float32(c.Arena.Height)
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
