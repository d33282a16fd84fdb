package main

import (
	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults mirror defaults.yaml.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Rabbit
			{Name: "rabbit_hunger_decay", Path: "rabbit.hunger_decay", Min: 0.004, Max: 0.03, Default: 0.012},
			{Name: "rabbit_thirst_decay", Path: "rabbit.thirst_decay", Min: 0.006, Max: 0.04, Default: 0.018},
			{Name: "rabbit_flee_radius", Path: "rabbit.flee_radius", Min: 6, Max: 25, Default: 14},
			{Name: "rabbit_mate_cooldown", Path: "rabbit.mate_cooldown", Min: 8, Max: 60, Default: 20},
			{Name: "rabbit_litter_max", Path: "rabbit.litter_max", Min: 1, Max: 6, Default: 3},
			// Fox
			{Name: "fox_hunger_decay", Path: "fox.hunger_decay", Min: 0.004, Max: 0.03, Default: 0.01},
			{Name: "fox_hunt_threshold", Path: "fox.hunt_threshold", Min: 0.3, Max: 0.95, Default: 0.7},
			{Name: "fox_aggro_radius", Path: "fox.aggro_radius", Min: 8, Max: 30, Default: 18},
			{Name: "fox_mate_cooldown", Path: "fox.mate_cooldown", Min: 10, Max: 90, Default: 30},
			{Name: "fox_max_population", Path: "fox.max_population", Min: 5, Max: 60, Default: 30},
			// Flora
			{Name: "flower_regrow_interval", Path: "simulation.flower_regrow_interval", Min: 0.3, Max: 5, Default: 1.2},
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
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct and recomputes
// derived values. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0
	next := func() float64 {
		v := clamped[i]
		i++
		return v
	}

	cfg.Rabbit.HungerDecay = next()
	cfg.Rabbit.ThirstDecay = next()
	cfg.Rabbit.FleeRadius = next()
	cfg.Rabbit.MateCooldown = next()
	cfg.Rabbit.LitterMax = max(int(next()+0.5), cfg.Rabbit.LitterMin)

	cfg.Fox.HungerDecay = next()
	cfg.Fox.HuntThreshold = next()
	cfg.Fox.AggroRadius = next()
	cfg.Fox.MateCooldown = next()
	cfg.Fox.MaxPopulation = int(next() + 0.5)

	cfg.Simulation.FlowerRegrowInterval = next()

	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Rabbit.HungerDecay,
		cfg.Rabbit.ThirstDecay,
		cfg.Rabbit.FleeRadius,
		cfg.Rabbit.MateCooldown,
		float64(cfg.Rabbit.LitterMax),
		cfg.Fox.HungerDecay,
		cfg.Fox.HuntThreshold,
		cfg.Fox.AggroRadius,
		cfg.Fox.MateCooldown,
		float64(cfg.Fox.MaxPopulation),
		cfg.Simulation.FlowerRegrowInterval,
	}
}
