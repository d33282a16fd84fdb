package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// Collector accumulates store events within time windows and produces
// WindowStats. It is meant to be registered as a store subscriber.
type Collector struct {
	runID          string
	windowDuration float64 // sim-seconds

	// Current window tracking
	windowStart     float64
	windowStartTick int64

	lifetimes *LifetimeTracker

	// Event counters for current window
	births            [len(store.AllSpecies)]int
	deaths            [len(store.AllSpecies)]int
	starvations       int
	dehydrations      int
	catches           int
	flowersEaten      int
	flowersGrown      int
	drinks            int
	matings           int
	matured           int
	littersSuppressed int
	lifespans         [len(store.AllSpecies)][]float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(runID string, windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 10
	}
	return &Collector{
		runID:          runID,
		windowDuration: windowDurationSec,
		lifetimes:      NewLifetimeTracker(),
	}
}

// Lifetimes returns the per-agent lifetime tracker.
func (c *Collector) Lifetimes() *LifetimeTracker {
	return c.lifetimes
}

// RegisterPopulation starts lifetime tracking for every agent in s. Used
// after a population reset, which emits no birth events.
func (c *Collector) RegisterPopulation(s *store.State) {
	c.lifetimes = NewLifetimeTracker()
	for _, sp := range store.AllSpecies {
		for _, e := range s.EntitiesOf(sp) {
			c.lifetimes.Register(e.ID, e.Species, s.Clock.Elapsed)
		}
	}
	c.windowStart = s.Clock.Elapsed
}

// Record counts a store event.
func (c *Collector) Record(e store.Event) {
	if done := c.lifetimes.Observe(e); done != nil {
		c.lifespans[done.Species] = append(c.lifespans[done.Species], e.Time-done.BornAt)
	}

	switch e.Kind {
	case store.EventBirth:
		c.births[e.Species]++
	case store.EventDeath:
		c.deaths[e.Species]++
		switch e.Cause {
		case store.CauseStarvation:
			c.starvations++
		case store.CauseDehydration:
			c.dehydrations++
		}
	case store.EventCaught:
		c.catches++
	case store.EventAte:
		c.flowersEaten++
	case store.EventFlowerSpawned:
		c.flowersGrown++
	case store.EventDrank:
		c.drinks++
	case store.EventMated:
		c.matings++
	case store.EventMatured:
		c.matured++
	case store.EventLitterSuppressed:
		c.littersSuppressed++
	}
}

// ShouldFlush returns true if a full window of simulated time has passed.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStart >= c.windowDuration
}

// Flush produces a WindowStats from the counters and the snapshot s, then
// resets the counters for the next window.
func (c *Collector) Flush(tick int64, s *store.State) WindowStats {
	rabbits := s.EntitiesOf(store.SpeciesRabbit)
	foxes := s.EntitiesOf(store.SpeciesFox)
	moose := s.EntitiesOf(store.SpeciesMoose)

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      s.Clock.Elapsed,
		TimeOfDay:       s.Clock.TimeOfDay,
		Weather:         s.Weather.Type.String(),

		Rabbits: len(rabbits),
		Foxes:   len(foxes),
		Moose:   len(moose),
		Flowers: len(s.Flowers),

		RabbitBirths:      c.births[store.SpeciesRabbit],
		FoxBirths:         c.births[store.SpeciesFox],
		RabbitDeaths:      c.deaths[store.SpeciesRabbit],
		FoxDeaths:         c.deaths[store.SpeciesFox],
		MooseDeaths:       c.deaths[store.SpeciesMoose],
		Starvations:       c.starvations,
		Dehydrations:      c.dehydrations,
		Catches:           c.catches,
		FlowersEaten:      c.flowersEaten,
		FlowersGrown:      c.flowersGrown,
		Drinks:            c.drinks,
		Matings:           c.matings,
		Matured:           c.matured,
		LittersSuppressed: c.littersSuppressed,

		RabbitLifespanMean: meanOrZero(c.lifespans[store.SpeciesRabbit]),
		FoxLifespanMean:    meanOrZero(c.lifespans[store.SpeciesFox]),
	}

	hunger, thirst := needs(rabbits)
	stats.RabbitHungerMean, stats.RabbitHungerStd, stats.RabbitHungerP10, stats.RabbitHungerP50, _ = ComputeNeedStats(hunger)
	stats.RabbitThirstMean, _, stats.RabbitThirstP10, _, _ = ComputeNeedStats(thirst)

	hunger, thirst = needs(foxes)
	stats.FoxHungerMean, stats.FoxHungerStd, stats.FoxHungerP10, stats.FoxHungerP50, _ = ComputeNeedStats(hunger)
	stats.FoxThirstMean, _, stats.FoxThirstP10, _, _ = ComputeNeedStats(thirst)

	hunger, thirst = needs(moose)
	stats.MooseHungerMean = meanOrZero(hunger)
	stats.MooseThirstMean = meanOrZero(thirst)

	c.reset(tick, s.Clock.Elapsed)
	return stats
}

func (c *Collector) reset(tick int64, now float64) {
	c.windowStart = now
	c.windowStartTick = tick
	c.births = [len(store.AllSpecies)]int{}
	c.deaths = [len(store.AllSpecies)]int{}
	c.starvations = 0
	c.dehydrations = 0
	c.catches = 0
	c.flowersEaten = 0
	c.flowersGrown = 0
	c.drinks = 0
	c.matings = 0
	c.matured = 0
	c.littersSuppressed = 0
	for i := range c.lifespans {
		c.lifespans[i] = c.lifespans[i][:0]
	}
}

func needs(list []store.Entity) (hunger, thirst []float64) {
	hunger = make([]float64, len(list))
	thirst = make([]float64, len(list))
	for i, e := range list {
		hunger[i] = e.Hunger
		thirst[i] = e.Thirst
	}
	return hunger, thirst
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
