package store

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

func newTestStore(t *testing.T, tweak func(*config.Config)) *Store {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
		cfg.ComputeDerived()
	}
	return New(cfg, rand.New(rand.NewSource(1)))
}

func adult(sp Species, sex Sex, x float64) SpawnSpec {
	return SpawnSpec{Species: sp, Position: r3.Vec{X: x}, Sex: sex, Adult: true, Hunger: 0.8, Thirst: 0.8}
}

// recorder collects events dispatched after it subscribes.
type recorder struct{ events []Event }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func record(st *Store) *recorder {
	r := &recorder{}
	st.Subscribe(func(e Event) { r.events = append(r.events, e) })
	return r
}

func TestUpdateNeedsIdempotent(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{adult(SpeciesRabbit, Female, 0)}})
	rec := record(st)

	st.Dispatch(UpdateNeeds{ID: 1, Hunger: 0.5, Thirst: 0.4})
	first, _ := st.State().Entity(1)

	st.Dispatch(UpdateNeeds{ID: 1, Hunger: 0.5, Thirst: 0.4})
	second, _ := st.State().Entity(1)

	if first != second {
		t.Errorf("repeated needs sync changed entity: %+v -> %+v", first, second)
	}
	if len(rec.events) != 0 {
		t.Errorf("needs sync emitted %d events, want 0", len(rec.events))
	}
}

func TestUpdateNeedsClampsAndKills(t *testing.T) {
	tests := []struct {
		name      string
		hunger    float64
		thirst    float64
		wantAlive bool
		wantCause DeathCause
	}{
		{"healthy", 0.5, 0.5, true, CauseNone},
		{"over one clamps", 1.7, 2, true, CauseNone},
		{"starved", 0, 0.5, false, CauseStarvation},
		{"negative hunger", -0.2, 0.5, false, CauseStarvation},
		{"dehydrated", 0.5, 0, false, CauseDehydration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, nil)
			st.Dispatch(InitPopulation{Spawns: []SpawnSpec{adult(SpeciesFox, Male, 0)}})
			rec := record(st)

			st.Dispatch(UpdateNeeds{ID: 1, Hunger: tt.hunger, Thirst: tt.thirst})

			e, ok := st.State().Entity(1)
			if ok != tt.wantAlive {
				t.Fatalf("alive = %v, want %v", ok, tt.wantAlive)
			}
			if ok {
				if e.Hunger < 0 || e.Hunger > 1 || e.Thirst < 0 || e.Thirst > 1 {
					t.Errorf("needs out of range: hunger=%v thirst=%v", e.Hunger, e.Thirst)
				}
				return
			}
			if got := st.State().Count(SpeciesFox); got != 0 {
				t.Errorf("fox count = %d, want 0", got)
			}
			if rec.count(EventDeath) != 1 || rec.events[0].Cause != tt.wantCause {
				t.Errorf("events = %+v, want one death by %v", rec.events, tt.wantCause)
			}
		})
	}
}

func TestMateCommitSinglePregnancy(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{
		adult(SpeciesRabbit, Male, 0),
		adult(SpeciesRabbit, Female, 1),
	}})
	rec := record(st)

	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 2, FemaleID: 1})

	if got := rec.count(EventMated); got != 1 {
		t.Fatalf("mated events = %d, want 1", got)
	}
	female, _ := st.State().Entity(2)
	rep, _ := female.Reproduction()
	if !rep.Pregnant || rep.Matings != 1 {
		t.Errorf("female reproduction = %+v, want pregnant after one mating", rep)
	}
	male, _ := st.State().Entity(1)
	if mr, _ := male.Reproduction(); mr.Pregnant {
		t.Error("male marked pregnant")
	}
}

func TestMateCommitRejected(t *testing.T) {
	tests := []struct {
		name   string
		spawns []SpawnSpec
		tweak  func(*config.Config)
	}{
		{
			name:   "same sex",
			spawns: []SpawnSpec{adult(SpeciesFox, Male, 0), adult(SpeciesFox, Male, 1)},
		},
		{
			name: "juvenile female",
			spawns: []SpawnSpec{
				adult(SpeciesFox, Male, 0),
				{Species: SpeciesFox, Sex: Female, Hunger: 0.8, Thirst: 0.8},
			},
		},
		{
			name:   "mixed species",
			spawns: []SpawnSpec{adult(SpeciesFox, Male, 0), adult(SpeciesRabbit, Female, 1)},
		},
		{
			name:   "population cap",
			spawns: []SpawnSpec{adult(SpeciesFox, Male, 0), adult(SpeciesFox, Female, 1)},
			tweak:  func(c *config.Config) { c.Fox.MaxPopulation = 2 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, tt.tweak)
			st.Dispatch(InitPopulation{Spawns: tt.spawns})
			rec := record(st)

			st.Dispatch(MateCommit{Species: SpeciesFox, MaleID: 1, FemaleID: 2})

			if got := rec.count(EventMated); got != 0 {
				t.Errorf("mated events = %d, want 0", got)
			}
		})
	}
}

func TestMateCooldown(t *testing.T) {
	st := newTestStore(t, func(c *config.Config) { c.Rabbit.LitterMin, c.Rabbit.LitterMax = 1, 1 })
	st.Dispatch(InitPopulation{
		Spawns:  []SpawnSpec{adult(SpeciesRabbit, Male, 0), adult(SpeciesRabbit, Female, 1)},
		Flowers: []r3.Vec{{X: 1}},
	})
	rec := record(st)

	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	st.Dispatch(EatFlower{EaterID: 2, FlowerID: 1}) // resolves the pregnancy
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	if got := rec.count(EventMated); got != 1 {
		t.Fatalf("mated during cooldown: %d events", got)
	}

	st.Dispatch(AdvanceClock{Delta: st.reducer.cfg.Rabbit.MateCooldown})
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	if got := rec.count(EventMated); got != 2 {
		t.Errorf("mated events after cooldown = %d, want 2", got)
	}
}

func TestCatchPreyFirstDispatchWins(t *testing.T) {
	st := newTestStore(t, nil)
	hungry := func(sex Sex, x float64) SpawnSpec {
		s := adult(SpeciesFox, sex, x)
		s.Hunger = 0.3
		return s
	}
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{
		hungry(Male, 0),
		hungry(Female, 2),
		adult(SpeciesRabbit, Female, 1),
	}})
	rec := record(st)

	st.Dispatch(CatchPrey{PredatorID: 1, PreyID: 3})
	st.Dispatch(CatchPrey{PredatorID: 2, PreyID: 3})

	s := st.State()
	if _, ok := s.Entity(3); ok {
		t.Fatal("rabbit still alive")
	}
	if got := rec.count(EventDeath); got != 1 {
		t.Errorf("death events = %d, want 1", got)
	}
	first, _ := s.Entity(1)
	second, _ := s.Entity(2)
	if first.Hunger != 1 {
		t.Errorf("first fox hunger = %v, want 1", first.Hunger)
	}
	if second.Hunger != 0.3 {
		t.Errorf("second fox hunger = %v, want 0.3", second.Hunger)
	}
	if first.NeedsRev != 1 || second.NeedsRev != 0 {
		t.Errorf("needs revisions = %d/%d, want 1/0", first.NeedsRev, second.NeedsRev)
	}
}

func TestCatchPromotesJuvenileFox(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{
		{Species: SpeciesFox, Sex: Male, Hunger: 0.3, Thirst: 0.8},
		adult(SpeciesRabbit, Female, 1),
	}})
	rec := record(st)

	st.Dispatch(CatchPrey{PredatorID: 1, PreyID: 2})

	fox, _ := st.State().Entity(1)
	if !fox.IsAdult() {
		t.Error("fox not promoted after first kill")
	}
	if rec.count(EventMatured) != 1 {
		t.Errorf("matured events = %d, want 1", rec.count(EventMatured))
	}
}

func TestFoxLitterNeedsTwoKills(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{
		adult(SpeciesFox, Male, 0),
		adult(SpeciesFox, Female, 1),
		adult(SpeciesRabbit, Female, 2),
		adult(SpeciesRabbit, Male, 3),
	}})
	st.Dispatch(MateCommit{Species: SpeciesFox, MaleID: 1, FemaleID: 2})
	rec := record(st)

	st.Dispatch(CatchPrey{PredatorID: 2, PreyID: 3})
	mother, _ := st.State().Entity(2)
	if rep, _ := mother.Reproduction(); !rep.Pregnant {
		t.Fatal("litter born after a single kill")
	}
	if got := mother.Traits.(FoxTraits).MealsWhilePregnant; got != 1 {
		t.Errorf("meals while pregnant = %d, want 1", got)
	}

	st.Dispatch(CatchPrey{PredatorID: 2, PreyID: 4})
	mother, _ = st.State().Entity(2)
	if rep, _ := mother.Reproduction(); rep.Pregnant {
		t.Error("still pregnant after second kill")
	}
	births := rec.count(EventBirth)
	if births < 1 || births > 2 {
		t.Errorf("litter size = %d, want 1..2", births)
	}
	if got := st.State().Count(SpeciesFox); got != 2+births {
		t.Errorf("fox count = %d, want %d", got, 2+births)
	}
}

func TestRabbitLitterSuppressedAtCap(t *testing.T) {
	st := newTestStore(t, func(c *config.Config) {
		c.Rabbit.MaxPopulation = 3
		c.Rabbit.LitterMin, c.Rabbit.LitterMax = 3, 3
	})
	female := adult(SpeciesRabbit, Female, 1)
	female.Hunger = 0.6
	st.Dispatch(InitPopulation{
		Spawns:  []SpawnSpec{adult(SpeciesRabbit, Male, 0), female},
		Flowers: []r3.Vec{{X: 1}},
	})
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	rec := record(st)

	st.Dispatch(EatFlower{EaterID: 2, FlowerID: 1})

	s := st.State()
	if got := s.Count(SpeciesRabbit); got != 3 {
		t.Errorf("rabbit count = %d, want 3", got)
	}
	if got := rec.count(EventBirth); got != 1 {
		t.Errorf("births = %d, want 1", got)
	}
	if got := rec.count(EventLitterSuppressed); got != 1 {
		t.Fatalf("suppressed events = %d, want 1", got)
	}
	mother, _ := s.Entity(2)
	if rep, _ := mother.Reproduction(); rep.Pregnant {
		t.Error("pregnancy not cleared by suppressed litter")
	}
	for _, e := range s.EntitiesOf(SpeciesRabbit) {
		if e.ID <= 2 {
			continue
		}
		if e.IsAdult() || e.Hunger != newbornNeeds {
			t.Errorf("newborn %d = %+v", e.ID, e)
		}
		if d := math.Hypot(e.Position.X-mother.Position.X, e.Position.Z-mother.Position.Z); d > st.reducer.cfg.Rabbit.LitterJitter {
			t.Errorf("newborn %d placed %v from mother", e.ID, d)
		}
	}
}

func TestRabbitLitterNeedsHunger(t *testing.T) {
	st := newTestStore(t, nil)
	female := adult(SpeciesRabbit, Female, 1)
	female.Hunger = 0.05
	st.Dispatch(InitPopulation{
		Spawns:  []SpawnSpec{adult(SpeciesRabbit, Male, 0), female},
		Flowers: []r3.Vec{{X: 1}},
	})
	st.Dispatch(MateCommit{Species: SpeciesRabbit, MaleID: 1, FemaleID: 2})
	rec := record(st)

	st.Dispatch(EatFlower{EaterID: 2, FlowerID: 1})

	if got := rec.count(EventBirth); got != 0 {
		t.Errorf("births = %d, want 0 below litter hunger", got)
	}
	mother, _ := st.State().Entity(2)
	if rep, _ := mother.Reproduction(); !rep.Pregnant {
		t.Error("pregnancy cleared without a litter")
	}
}

func TestEatFlower(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{
		Spawns: []SpawnSpec{
			{Species: SpeciesRabbit, Sex: Male, Hunger: 0.2, Thirst: 0.8},
			adult(SpeciesFox, Male, 3),
			adult(SpeciesMoose, Female, 5),
		},
		Flowers: []r3.Vec{{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 5}},
	})
	rec := record(st)

	st.Dispatch(EatFlower{EaterID: 2, FlowerID: 5}) // foxes do not eat flowers
	st.Dispatch(EatFlower{EaterID: 3, FlowerID: 5})
	st.Dispatch(EatFlower{EaterID: 1, FlowerID: 5}) // already eaten
	for id := FlowerID(1); id <= 3; id++ {
		st.Dispatch(EatFlower{EaterID: 1, FlowerID: id})
	}

	s := st.State()
	if got := rec.count(EventAte); got != 4 {
		t.Errorf("ate events = %d, want 4", got)
	}
	if len(s.Flowers) != 1 {
		t.Errorf("flowers left = %d, want 1", len(s.Flowers))
	}
	rabbit, _ := s.Entity(1)
	if !rabbit.IsAdult() || rabbit.Traits.(RabbitTraits).MealsEaten != 3 {
		t.Errorf("rabbit after three meals = %+v", rabbit)
	}
	if rabbit.Hunger != 1 {
		t.Errorf("rabbit hunger = %v, want clamped to 1", rabbit.Hunger)
	}
	if rec.count(EventMatured) != 1 {
		t.Errorf("matured events = %d, want 1", rec.count(EventMatured))
	}
}

func TestReduceLeavesPreviousSnapshot(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{
		Spawns:  []SpawnSpec{adult(SpeciesRabbit, Male, 0)},
		Flowers: []r3.Vec{{X: 1}},
	})
	before := st.State()

	st.Dispatch(UpdateMotion{ID: 1, Position: r3.Vec{X: 5, Z: 5}, Velocity: r3.Vec{X: 1, Y: 3}})
	st.Dispatch(EatFlower{EaterID: 1, FlowerID: 1})
	st.Dispatch(Kill{ID: 1, Cause: CauseRemoved})

	if e, ok := before.Entity(1); !ok || e.Position != (r3.Vec{}) {
		t.Errorf("old snapshot entity changed: %+v (present=%v)", e, ok)
	}
	if _, ok := before.Flower(1); !ok {
		t.Error("old snapshot lost its flower")
	}
	if before.Count(SpeciesRabbit) != 1 {
		t.Errorf("old snapshot count = %d", before.Count(SpeciesRabbit))
	}
}

func TestUpdateMotionZeroesVertical(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{adult(SpeciesRabbit, Male, 0)}})

	st.Dispatch(UpdateMotion{ID: 1, Position: r3.Vec{X: 2}, Velocity: r3.Vec{X: 1, Y: 4, Z: -1}, HopPhase: 1.5})

	e, _ := st.State().Entity(1)
	if e.Velocity.Y != 0 || e.Velocity.X != 1 || e.Velocity.Z != -1 {
		t.Errorf("velocity = %+v", e.Velocity)
	}
	if e.Traits.(RabbitTraits).HopPhase != 1.5 {
		t.Errorf("hop phase = %v, want 1.5", e.Traits.(RabbitTraits).HopPhase)
	}
}

func TestAbsentTargetsAreNoOps(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{adult(SpeciesFox, Male, 0)}})
	rec := record(st)

	for _, a := range []Action{
		Kill{ID: 42, Cause: CauseStarvation},
		RemoveEntity{ID: 42},
		UpdateNeeds{ID: 42},
		UpdateMotion{ID: 42},
		SetBehavior{ID: 42, Behavior: BehaviorChasing},
		Drink{ID: 42},
		CatchPrey{PredatorID: 1, PreyID: 42},
		GiveBirth{ParentID: 1},
		RecordPregnancyMeal{ID: 1},
	} {
		st.Dispatch(a)
	}

	if len(rec.events) != 0 {
		t.Errorf("events = %+v, want none", rec.events)
	}
	if st.State().Count(SpeciesFox) != 1 {
		t.Error("fox removed by a no-op action")
	}
}

func TestClockAndFlags(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		check   func(*State) bool
	}{
		{
			name:    "time of day wraps",
			actions: []Action{SetTimeOfDay{Fraction: 0.9}, AdvanceClock{Delta: 48}},
			check:   func(s *State) bool { return math.Abs(s.Clock.TimeOfDay-0.1) < 1e-9 && s.Clock.Elapsed == 48 },
		},
		{
			name:    "negative delta ignored",
			actions: []Action{AdvanceClock{Delta: -5}},
			check:   func(s *State) bool { return s.Clock.Elapsed == 0 },
		},
		{
			name:    "speed clamped high",
			actions: []Action{SetSpeed{Speed: 100}},
			check:   func(s *State) bool { return s.Speed == MaxSpeed },
		},
		{
			name:    "speed clamped low",
			actions: []Action{SetSpeed{Speed: 0}},
			check:   func(s *State) bool { return s.Speed == MinSpeed },
		},
		{
			name:    "pause toggles",
			actions: []Action{TogglePause{}, TogglePause{}, TogglePause{}},
			check:   func(s *State) bool { return s.Paused },
		},
		{
			name:    "game over sticks",
			actions: []Action{GameOver{}, GameOver{}},
			check:   func(s *State) bool { return s.GameOver },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, nil)
			for _, a := range tt.actions {
				st.Dispatch(a)
			}
			if !tt.check(st.State()) {
				t.Errorf("unexpected state: clock=%+v speed=%v paused=%v over=%v",
					st.State().Clock, st.State().Speed, st.State().Paused, st.State().GameOver)
			}
		})
	}
}

func TestSpawnRespectsFlowerCap(t *testing.T) {
	st := newTestStore(t, func(c *config.Config) {
		c.Simulation.InitialFlowers = 0
		c.Simulation.MaxFlowers = 2
	})
	for i := 0; i < 4; i++ {
		st.Dispatch(SpawnFlower{Position: r3.Vec{X: float64(i)}})
	}
	if got := len(st.State().Flowers); got != 2 {
		t.Errorf("flowers = %d, want 2", got)
	}
}

func TestSpawnEntitiesStopsAtCap(t *testing.T) {
	st := newTestStore(t, func(c *config.Config) { c.Rabbit.MaxPopulation = 3 })
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{adult(SpeciesRabbit, Female, 0)}})
	rec := record(st)

	st.Dispatch(SpawnEntities{Specs: []SpawnSpec{
		adult(SpeciesRabbit, Male, 1),
		adult(SpeciesRabbit, Female, 2),
		adult(SpeciesRabbit, Male, 3),
		adult(SpeciesFox, Male, 4),
		adult(SpeciesRabbit, Female, 5),
	}})

	s := st.State()
	if got := s.Count(SpeciesRabbit); got != 3 {
		t.Errorf("rabbits = %d, want 3", got)
	}
	if got := s.Count(SpeciesFox); got != 1 {
		t.Errorf("foxes = %d, want 1", got)
	}
	if got := rec.count(EventBirth); got != 3 {
		t.Errorf("birth events = %d, want 3", got)
	}
	if _, ok := s.Entity(5); ok {
		t.Error("spawned an id past the created entities")
	}
}

func TestPromoteAdult(t *testing.T) {
	st := newTestStore(t, nil)
	st.Dispatch(InitPopulation{Spawns: []SpawnSpec{
		{Species: SpeciesRabbit, Sex: Female, Hunger: 0.8, Thirst: 0.8},
		adult(SpeciesFox, Male, 2),
	}})
	rec := record(st)

	st.Dispatch(PromoteAdult{ID: 1})
	st.Dispatch(PromoteAdult{ID: 1})
	st.Dispatch(PromoteAdult{ID: 2})
	st.Dispatch(PromoteAdult{ID: 99})

	rabbit, _ := st.State().Entity(1)
	if !rabbit.IsAdult() {
		t.Error("rabbit not promoted")
	}
	if got := rec.count(EventMatured); got != 1 {
		t.Errorf("matured events = %d, want 1", got)
	}
}

func TestEventsRing(t *testing.T) {
	st := newTestStore(t, func(c *config.Config) { c.Simulation.EventLogSize = 3 })
	for i := 0; i < 5; i++ {
		st.Dispatch(SpawnFlower{Position: r3.Vec{X: float64(i)}})
	}

	events := st.Events()
	if len(events) != 3 {
		t.Fatalf("retained %d events, want 3", len(events))
	}
	for i, want := range []float64{3, 4, 5} {
		if events[i].Value != want {
			t.Errorf("events[%d].Value = %v, want %v", i, events[i].Value, want)
		}
	}
}
