package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	TimeOfDay       float64 `csv:"time_of_day"`
	Weather         string  `csv:"weather"`

	// Population at window end
	Rabbits int `csv:"rabbits"`
	Foxes   int `csv:"foxes"`
	Moose   int `csv:"moose"`
	Flowers int `csv:"flowers"`

	// Events during window
	RabbitBirths      int `csv:"rabbit_births"`
	FoxBirths         int `csv:"fox_births"`
	RabbitDeaths      int `csv:"rabbit_deaths"`
	FoxDeaths         int `csv:"fox_deaths"`
	MooseDeaths       int `csv:"moose_deaths"`
	Starvations       int `csv:"starvations"`
	Dehydrations      int `csv:"dehydrations"`
	Catches           int `csv:"catches"`
	FlowersEaten      int `csv:"flowers_eaten"`
	FlowersGrown      int `csv:"flowers_grown"`
	Drinks            int `csv:"drinks"`
	Matings           int `csv:"matings"`
	Matured           int `csv:"matured"`
	LittersSuppressed int `csv:"litters_suppressed"`

	// Lifespan of agents that died during the window, in sim-seconds
	RabbitLifespanMean float64 `csv:"rabbit_lifespan_mean"`
	FoxLifespanMean    float64 `csv:"fox_lifespan_mean"`

	// Needs distribution (sampled at window end)
	RabbitHungerMean float64 `csv:"rabbit_hunger_mean"`
	RabbitHungerStd  float64 `csv:"rabbit_hunger_std"`
	RabbitHungerP10  float64 `csv:"rabbit_hunger_p10"`
	RabbitHungerP50  float64 `csv:"rabbit_hunger_p50"`
	RabbitThirstMean float64 `csv:"rabbit_thirst_mean"`
	RabbitThirstP10  float64 `csv:"rabbit_thirst_p10"`

	FoxHungerMean float64 `csv:"fox_hunger_mean"`
	FoxHungerStd  float64 `csv:"fox_hunger_std"`
	FoxHungerP10  float64 `csv:"fox_hunger_p10"`
	FoxHungerP50  float64 `csv:"fox_hunger_p50"`
	FoxThirstMean float64 `csv:"fox_thirst_mean"`
	FoxThirstP10  float64 `csv:"fox_thirst_p10"`

	MooseHungerMean float64 `csv:"moose_hunger_mean"`
	MooseThirstMean float64 `csv:"moose_thirst_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeNeedStats calculates mean, sample standard deviation and
// percentiles of hunger or thirst values.
func ComputeNeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("weather", s.Weather),
		slog.Int("rabbits", s.Rabbits),
		slog.Int("foxes", s.Foxes),
		slog.Int("moose", s.Moose),
		slog.Int("flowers", s.Flowers),
		slog.Int("rabbit_births", s.RabbitBirths),
		slog.Int("fox_births", s.FoxBirths),
		slog.Int("rabbit_deaths", s.RabbitDeaths),
		slog.Int("fox_deaths", s.FoxDeaths),
		slog.Int("moose_deaths", s.MooseDeaths),
		slog.Int("starvations", s.Starvations),
		slog.Int("dehydrations", s.Dehydrations),
		slog.Int("catches", s.Catches),
		slog.Int("flowers_eaten", s.FlowersEaten),
		slog.Int("drinks", s.Drinks),
		slog.Int("matings", s.Matings),
		slog.Int("litters_suppressed", s.LittersSuppressed),
		slog.Float64("rabbit_lifespan_mean", s.RabbitLifespanMean),
		slog.Float64("fox_lifespan_mean", s.FoxLifespanMean),
		slog.Float64("rabbit_hunger_mean", s.RabbitHungerMean),
		slog.Float64("rabbit_thirst_mean", s.RabbitThirstMean),
		slog.Float64("fox_hunger_mean", s.FoxHungerMean),
		slog.Float64("fox_thirst_mean", s.FoxThirstMean),
		slog.Float64("moose_hunger_mean", s.MooseHungerMean),
		slog.Float64("moose_thirst_mean", s.MooseThirstMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"time_of_day", s.TimeOfDay,
		"weather", s.Weather,
		"rabbits", s.Rabbits,
		"foxes", s.Foxes,
		"moose", s.Moose,
		"flowers", s.Flowers,
		"rabbit_births", s.RabbitBirths,
		"fox_births", s.FoxBirths,
		"rabbit_deaths", s.RabbitDeaths,
		"fox_deaths", s.FoxDeaths,
		"moose_deaths", s.MooseDeaths,
		"starvations", s.Starvations,
		"dehydrations", s.Dehydrations,
		"catches", s.Catches,
		"flowers_eaten", s.FlowersEaten,
		"flowers_grown", s.FlowersGrown,
		"drinks", s.Drinks,
		"matings", s.Matings,
		"matured", s.Matured,
		"litters_suppressed", s.LittersSuppressed,
		"rabbit_lifespan_mean", s.RabbitLifespanMean,
		"fox_lifespan_mean", s.FoxLifespanMean,
		"rabbit_hunger_mean", s.RabbitHungerMean,
		"rabbit_hunger_p10", s.RabbitHungerP10,
		"rabbit_thirst_mean", s.RabbitThirstMean,
		"fox_hunger_mean", s.FoxHungerMean,
		"fox_hunger_p10", s.FoxHungerP10,
		"fox_thirst_mean", s.FoxThirstMean,
		"moose_hunger_mean", s.MooseHungerMean,
		"moose_thirst_mean", s.MooseThirstMean,
	)
}
