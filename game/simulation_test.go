package game

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/telemetry"
)

func testConfig(tweak func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Obstacles.Trees, cfg.Obstacles.Stones, cfg.Obstacles.Bushes = 0, 0, 0
	cfg.Simulation.InitialRabbits = 4
	cfg.Simulation.InitialFoxes = 1
	cfg.Simulation.InitialMoose = 1
	cfg.Simulation.InitialFlowers = 10
	if tweak != nil {
		tweak(cfg)
	}
	cfg.ComputeDerived()
	return cfg
}

func newTestSimulation(t *testing.T, tweak func(*config.Config), opts Options) *Simulation {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	sim, err := NewSimulation(testConfig(tweak), opts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { sim.Close() })
	return sim
}

// dryPoint returns a point with generous clearance from water and snow.
func dryPoint(t *testing.T, sim *Simulation) r3.Vec {
	t.Helper()
	for x := -60.0; x <= 60; x += 5 {
		for z := -60.0; z <= 60; z += 5 {
			if sim.Terrain().IsWalkable(x, z, 15) {
				return r3.Vec{X: x, Z: z}
			}
		}
	}
	t.Fatal("no dry point found")
	return r3.Vec{}
}

func adult(sp store.Species, sex store.Sex, p r3.Vec, hunger float64) store.SpawnSpec {
	return store.SpawnSpec{Species: sp, Position: p, Sex: sex, Adult: true, Hunger: hunger, Thirst: 1}
}

func TestInitialPopulation(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	st := sim.State()

	if got := st.Count(store.SpeciesRabbit); got != 4 {
		t.Errorf("rabbits = %d, want 4", got)
	}
	if got := st.Count(store.SpeciesFox); got != 1 {
		t.Errorf("foxes = %d, want 1", got)
	}
	if got := len(st.Flowers); got != 10 {
		t.Errorf("flowers = %d, want 10", got)
	}
	if sim.Controllers() != len(st.Entities) {
		t.Errorf("controllers = %d, entities = %d", sim.Controllers(), len(st.Entities))
	}
	for _, e := range st.Entities {
		if !sim.Terrain().IsWalkable(e.Position.X, e.Position.Z, 0) {
			t.Errorf("entity %d spawned on unwalkable ground at %v", e.ID, e.Position)
		}
	}
}

func TestStepFrameDelta(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		frame float64
		want  float64
	}{
		{"normal frame", 1, 0.05, 0.05},
		{"clamped frame", 1, 5, 0.1},
		{"double speed", 2, 0.05, 0.1},
		{"clamped then scaled", 3, 1, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulation(t, nil, Options{})
			sim.SetSpeed(tt.speed)
			before := sim.State().Clock.Elapsed

			sim.Step(tt.frame)

			if got := sim.State().Clock.Elapsed - before; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("clock advanced %v, want %v", got, tt.want)
			}
			if sim.Tick() != 1 {
				t.Errorf("tick = %d, want 1", sim.Tick())
			}
		})
	}
}

func TestPauseStopsTicks(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	sim.TogglePause()

	before := sim.State()
	sim.Step(0.05)

	if sim.State() != before {
		t.Error("paused step changed the state")
	}
	if sim.Tick() != 0 {
		t.Errorf("tick = %d, want 0", sim.Tick())
	}

	sim.TogglePause()
	sim.Step(0.05)
	if sim.Tick() != 1 {
		t.Errorf("tick after resume = %d, want 1", sim.Tick())
	}
}

func TestCatchDespawnsPrey(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	p := dryPoint(t, sim)
	sim.Populate([]store.SpawnSpec{
		adult(store.SpeciesFox, store.Male, p, 0.3),
		adult(store.SpeciesRabbit, store.Female, r3.Add(p, r3.Vec{X: 0.8}), 1),
	}, nil)

	sim.Step(0.05)

	st := sim.State()
	if st.Count(store.SpeciesRabbit) != 0 {
		t.Fatalf("rabbit survived a catch at point blank")
	}
	if sim.Controllers() != 1 {
		t.Errorf("controllers = %d, want 1 after despawn", sim.Controllers())
	}
	if fox, _ := st.Entity(1); fox.Hunger != 1 {
		t.Errorf("fox hunger = %v, want 1 after catch", fox.Hunger)
	}
	if st.GameOver {
		t.Error("game over with a fox still alive")
	}
}

func TestGameOverWithoutRabbitsOrFoxes(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	sim.Populate([]store.SpawnSpec{
		adult(store.SpeciesMoose, store.Female, dryPoint(t, sim), 1),
	}, nil)

	sim.Step(0.05)
	if !sim.State().GameOver {
		t.Fatal("expected game over with only moose left")
	}

	elapsed := sim.State().Clock.Elapsed
	sim.Step(0.05)
	if sim.State().Clock.Elapsed != elapsed {
		t.Error("clock advanced after game over")
	}
}

func TestFlowerRegrowth(t *testing.T) {
	sim := newTestSimulation(t, func(cfg *config.Config) {
		cfg.Simulation.InitialFlowers = 0
		cfg.Simulation.MaxFlowers = 5
		cfg.Simulation.FlowerRegrowInterval = 1
	}, Options{})
	sim.Populate([]store.SpawnSpec{
		adult(store.SpeciesFox, store.Male, dryPoint(t, sim), 1),
	}, nil)

	for i := 0; i < 70; i++ {
		sim.Step(0.05)
	}
	if got := len(sim.State().Flowers); got != 3 {
		t.Fatalf("flowers after 3.5s = %d, want 3", got)
	}

	for i := 0; i < 200; i++ {
		sim.Step(0.05)
	}
	if got := len(sim.State().Flowers); got != 5 {
		t.Errorf("flowers = %d, want cap of 5", got)
	}
	for _, f := range sim.State().Flowers {
		if !sim.Terrain().IsWalkable(f.Position.X, f.Position.Z, 0) {
			t.Errorf("flower %d grew on unwalkable ground", f.ID)
		}
	}
}

func TestManualControl(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	start := dryPoint(t, sim)
	sim.Populate([]store.SpawnSpec{
		adult(store.SpeciesFox, store.Male, start, 1),
	}, nil)

	if !sim.SetManualControl(1, r3.Vec{X: 1}) {
		t.Fatal("SetManualControl on a live agent returned false")
	}
	if !sim.ManuallyControlled(1) {
		t.Fatal("agent not reported as manually controlled")
	}
	for i := 0; i < 20; i++ {
		sim.Step(0.05)
	}

	m, ok := sim.Motion(1)
	if !ok {
		t.Fatal("controller missing")
	}
	if m.Pos.X-start.X < 1 {
		t.Errorf("moved %v along +X, want > 1", m.Pos.X-start.X)
	}
	if math.Abs(m.Pos.Z-start.Z) > 0.5 {
		t.Errorf("drifted %v along Z under straight input", m.Pos.Z-start.Z)
	}

	sim.ClearManualControl(1)
	if sim.ManuallyControlled(1) {
		t.Error("agent still manually controlled after clear")
	}
	if sim.SetManualControl(99, r3.Vec{X: 1}) {
		t.Error("SetManualControl on a missing agent returned true")
	}
}

func TestDeterministicRuns(t *testing.T) {
	run := func() *store.State {
		sim := newTestSimulation(t, nil, Options{Seed: 42})
		for i := 0; i < 200; i++ {
			sim.Step(0.05)
		}
		return sim.State()
	}

	a, b := run(), run()
	if len(a.Entities) != len(b.Entities) || len(a.Flowers) != len(b.Flowers) {
		t.Fatalf("population differs: %d/%d entities, %d/%d flowers",
			len(a.Entities), len(b.Entities), len(a.Flowers), len(b.Flowers))
	}
	for id, ea := range a.Entities {
		eb, ok := b.Entities[id]
		if !ok {
			t.Fatalf("entity %d missing from second run", id)
		}
		if ea.Position != eb.Position || ea.Hunger != eb.Hunger || ea.Behavior != eb.Behavior {
			t.Errorf("entity %d differs: %+v vs %+v", id, ea, eb)
		}
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "events.db")
	sim, err := NewSimulation(testConfig(func(cfg *config.Config) {
		cfg.Simulation.FlowerRegrowInterval = 0.2
	}), Options{
		Seed:           3,
		OutputDir:      dir,
		EventsDB:       dbPath,
		StatsWindowSec: 0.5,
	})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}

	for i := 0; i < 30; i++ {
		sim.Step(0.05)
	}
	if err := sim.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) < 3 {
		t.Errorf("telemetry.csv has %d lines, want header + at least 2 windows", len(lines))
	}

	log, err := telemetry.OpenEventLog(dbPath, sim.RunID())
	if err != nil {
		t.Fatalf("reopen event log: %v", err)
	}
	defer log.Close()
	n, err := log.CountByKind("flower_spawned")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("no flower_spawned events in the event log")
	}
}

func TestControllerFields(t *testing.T) {
	sim := newTestSimulation(t, nil, Options{})
	sim.Populate([]store.SpawnSpec{
		adult(store.SpeciesFox, store.Male, dryPoint(t, sim), 0.4),
	}, nil)

	values, ok := sim.ControllerFields(1)
	if !ok {
		t.Fatal("no controller for agent 1")
	}
	if len(values) != len(components.AgentFieldDescriptors()) {
		t.Fatalf("got %d values, want one per descriptor", len(values))
	}
	if values[0] != 0.4 || values[1] != 1 {
		t.Errorf("hunger, thirst = %v, %v, want 0.4, 1", values[0], values[1])
	}
	if _, ok := sim.ControllerFields(99); ok {
		t.Error("ControllerFields on a missing agent returned ok")
	}
}
