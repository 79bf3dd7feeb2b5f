// Package main provides CMA-ES tuning for the steady-state evolution knobs.
package main

import (
	"vivarium/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters. The
// compatibility floor and smite penalty are locked; they are semantic
// constants, not tuning surface.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Evolution scheduling
			{Name: "time_alive_minimum", Path: "evolution.time_alive_minimum", Min: 10, Max: 300, Default: 30},
			{Name: "min_ticks_between", Path: "evolution.min_ticks_between_evolutions", Min: 20, Max: 600, Default: 100},
			{Name: "min_deletions", Path: "evolution.min_deletions_before_evolution", Min: 5, Max: 100, Default: 25},
			// Speciation
			{Name: "target_species", Path: "evolution.target_species", Min: 2, Max: 12, Default: 5},
			{Name: "compat_step", Path: "evolution.compat_step", Min: 0.02, Max: 0.5, Default: 0.1},
			// Arena economy
			{Name: "forage_rate", Path: "arena.forage_rate", Min: 0.04, Max: 0.3, Default: 0.12},
			{Name: "move_cost", Path: "arena.move_cost", Min: 0.01, Max: 0.15, Default: 0.04},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Evolution.TimeAliveMinimum = int(clamped[0])
	cfg.Evolution.MinTicksBetween = int(clamped[1])
	cfg.Evolution.MinDeletions = int(clamped[2])
	cfg.Evolution.TargetSpecies = int(clamped[3])
	cfg.Evolution.CompatStep = clamped[4]
	cfg.Arena.ForageRate = clamped[5]
	cfg.Arena.MoveCost = clamped[6]

	// Locked constants
	cfg.Evolution.CompatFloor = 0.3
	cfg.Evolution.SmitePenalty = 0.01
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Evolution.TimeAliveMinimum),
		float64(cfg.Evolution.MinTicksBetween),
		float64(cfg.Evolution.MinDeletions),
		float64(cfg.Evolution.TargetSpecies),
		cfg.Evolution.CompatStep,
		cfg.Arena.ForageRate,
		cfg.Arena.MoveCost,
	}
}
