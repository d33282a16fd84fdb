package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/game"
	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxSimTime  float64
	dt          float64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSimTime, dt float64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxSimTime:  maxSimTime,
		dt:          dt,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// A species below minViablePop for extinctionGraceSec counts as functionally
// extinct.
const (
	minViablePop       = 2
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalSec float64                 // sim-seconds before extinction, or maxSimTime
	windowStats []telemetry.WindowStats // collected via OnWindow
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	type seedResult struct{ fitness, quality float64 }
	results := make([]seedResult, len(fe.seeds))

	// Every run owns its store, rng and ECS world, so seeds run in parallel.
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(x, s)
			q := computeQuality(r.windowStats)
			results[idx] = seedResult{fitness: computeFitness(r.survivalSec, q), quality: q}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless run until functional extinction
// or maxSimTime, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var result runResult
	sim, err := game.NewSimulation(cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		OnWindow: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return result
	}
	defer sim.Close()

	var rabbitsBelow, foxesBelow float64
	for {
		sim.Step(fe.dt)
		st := sim.State()
		elapsed := st.Clock.Elapsed

		if st.GameOver || elapsed >= fe.maxSimTime {
			result.survivalSec = min(elapsed, fe.maxSimTime)
			return result
		}
		if elapsed < warmupSec {
			continue
		}

		rabbits, foxes := st.Count(store.SpeciesRabbit), st.Count(store.SpeciesFox)
		if rabbits == 0 || foxes == 0 {
			result.survivalSec = elapsed
			return result
		}

		rabbitsBelow = belowFor(rabbitsBelow, rabbits, fe.dt)
		foxesBelow = belowFor(foxesBelow, foxes, fe.dt)
		if rabbitsBelow >= extinctionGraceSec || foxesBelow >= extinctionGraceSec {
			result.survivalSec = elapsed
			return result
		}
	}
}

// belowFor accumulates time spent under the viable population.
func belowFor(acc float64, count int, dt float64) float64 {
	if count < minViablePop {
		return acc + dt
	}
	return 0
}

// copyConfig returns a copy of the base config the run may mutate. Terrain
// slices stay shared; nothing writes them.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Survival dominates; quality adds up to 20% to separate configs with
// similar survival.
func computeFitness(survivalSec, quality float64) float64 {
	return -(survivalSec * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.35
	qualityWeightStability = 0.25
	qualityWeightHunger    = 0.20
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 2 // skip first N windows
	qualityMinPop        = 2 // exclude windows where either species < this

	targetRatio = 5.0 // rabbits per fox
)

// computeQuality computes ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var ratioSum, hungerSum, huntSum float64
	var ratioCount, huntCount int
	rabbitCounts := make([]float64, 0, len(valid))
	foxCounts := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Rabbits < qualityMinPop || w.Foxes < qualityMinPop {
			continue
		}
		rabbitCounts = append(rabbitCounts, float64(w.Rabbits))
		foxCounts = append(foxCounts, float64(w.Foxes))

		logErr := math.Log(float64(w.Rabbits) / float64(w.Foxes) / targetRatio)
		ratioSum += math.Exp(-logErr * logErr)
		ratioCount++

		rabbitH := math.Exp(-math.Pow((w.RabbitHungerP50-0.6)/0.25, 2))
		foxH := math.Exp(-math.Pow((w.FoxHungerP50-0.6)/0.25, 2))
		hungerSum += (rabbitH + foxH) / 2

		// A fox should land a catch every few windows, not every tick.
		catchesPerFox := float64(w.Catches) / float64(w.Foxes)
		huntSum += math.Exp(-math.Pow((catchesPerFox-0.5)/0.5, 2))
		huntCount++
	}
	if ratioCount == 0 {
		return 0
	}

	stabilityScore := 0.0
	if len(rabbitCounts) >= 2 {
		cvRabbit := cv(rabbitCounts)
		cvFox := cv(foxCounts)
		stabilityScore = math.Exp(-(cvRabbit*cvRabbit + cvFox*cvFox))
	}

	quality := qualityWeightRatio*ratioSum/float64(ratioCount) +
		qualityWeightStability*stabilityScore +
		qualityWeightHunger*hungerSum/float64(ratioCount) +
		qualityWeightHunting*huntSum/float64(huntCount)

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
