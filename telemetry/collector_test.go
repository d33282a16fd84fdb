package telemetry

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

func newCollectedStore(t *testing.T) (*store.Store, *Collector) {
	t.Helper()
	st := store.New(config.Default(), rand.New(rand.NewSource(1)))
	st.Dispatch(store.InitPopulation{Spawns: []store.SpawnSpec{
		{Species: store.SpeciesRabbit, Position: r3.Vec{X: 1}, Sex: store.Female, Adult: true, Hunger: 0.6, Thirst: 0.7},
		{Species: store.SpeciesFox, Position: r3.Vec{X: 2}, Sex: store.Male, Adult: true, Hunger: 0.3, Thirst: 0.9},
		{Species: store.SpeciesRabbit, Position: r3.Vec{X: 3}, Sex: store.Male, Adult: true, Hunger: 0.8, Thirst: 0.5},
	}})

	c := NewCollector("run", 10)
	c.RegisterPopulation(st.State())
	st.Subscribe(c.Record)
	return st, c
}

func TestCollectorCountsCatch(t *testing.T) {
	st, c := newCollectedStore(t)

	st.Dispatch(store.AdvanceClock{Delta: 4})
	st.Dispatch(store.CatchPrey{PredatorID: 2, PreyID: 1})

	stats := c.Flush(100, st.State())
	if stats.Catches != 1 {
		t.Errorf("Catches = %d, want 1", stats.Catches)
	}
	if stats.RabbitDeaths != 1 || stats.FoxDeaths != 0 {
		t.Errorf("deaths rabbit=%d fox=%d, want 1/0", stats.RabbitDeaths, stats.FoxDeaths)
	}
	if stats.Rabbits != 1 || stats.Foxes != 1 {
		t.Errorf("population rabbits=%d foxes=%d, want 1/1", stats.Rabbits, stats.Foxes)
	}
	if stats.RabbitLifespanMean != 4 {
		t.Errorf("RabbitLifespanMean = %v, want 4", stats.RabbitLifespanMean)
	}
	if got := c.Lifetimes().Get(2); got == nil || got.Kills != 1 {
		t.Errorf("fox lifetime = %+v, want 1 kill", got)
	}
}

func TestCollectorStarvation(t *testing.T) {
	st, c := newCollectedStore(t)

	st.Dispatch(store.Kill{ID: 3, Cause: store.CauseStarvation})

	stats := c.Flush(10, st.State())
	if stats.Starvations != 1 || stats.Dehydrations != 0 {
		t.Errorf("starvations=%d dehydrations=%d, want 1/0", stats.Starvations, stats.Dehydrations)
	}
	if c.Lifetimes().Count() != 2 {
		t.Errorf("tracked agents = %d, want 2", c.Lifetimes().Count())
	}
}

func TestCollectorFlushResets(t *testing.T) {
	st, c := newCollectedStore(t)

	st.Dispatch(store.CatchPrey{PredatorID: 2, PreyID: 1})
	first := c.Flush(50, st.State())
	if first.WindowStartTick != 0 || first.WindowEndTick != 50 {
		t.Errorf("first window %d..%d, want 0..50", first.WindowStartTick, first.WindowEndTick)
	}

	second := c.Flush(100, st.State())
	if second.Catches != 0 || second.RabbitDeaths != 0 {
		t.Errorf("counters not reset: catches=%d deaths=%d", second.Catches, second.RabbitDeaths)
	}
	if second.WindowStartTick != 50 {
		t.Errorf("WindowStartTick = %d, want 50", second.WindowStartTick)
	}
}

func TestCollectorNeedStats(t *testing.T) {
	st, c := newCollectedStore(t)

	stats := c.Flush(1, st.State())
	if diff := stats.RabbitHungerMean - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RabbitHungerMean = %v, want 0.7", stats.RabbitHungerMean)
	}
	if stats.FoxHungerMean != 0.3 || stats.FoxHungerStd != 0 {
		t.Errorf("fox hunger mean=%v std=%v, want 0.3/0", stats.FoxHungerMean, stats.FoxHungerStd)
	}
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector("run", 10)
	if c.ShouldFlush(9.9) {
		t.Error("flushed before the window ended")
	}
	if !c.ShouldFlush(10) {
		t.Error("did not flush at the window boundary")
	}
}
