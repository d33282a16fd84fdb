package store

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// Speed multiplier bounds.
const (
	MinSpeed = 0.25
	MaxSpeed = 10.0
)

// newbornNeeds is the hunger and thirst a litter starts with.
const newbornNeeds = 0.9

// Reducer applies actions to states. It owns the random source used for
// litter sizes and placement so that a seeded run is reproducible.
type Reducer struct {
	cfg *config.Config
	rng *rand.Rand
}

// NewReducer creates a reducer.
func NewReducer(cfg *config.Config, rng *rand.Rand) *Reducer {
	return &Reducer{cfg: cfg, rng: rng}
}

// Reduce returns the state that results from applying a to s, plus the
// events the transition produced. s is never modified.
func (r *Reducer) Reduce(s *State, a Action) (*State, []Event) {
	d := newDraft(s)
	var ev []Event
	emit := func(e Event) {
		e.Time = d.s.Clock.Elapsed
		ev = append(ev, e)
	}

	switch a := a.(type) {
	case InitPopulation:
		r.initPopulation(d, a)
	case SpawnEntities:
		r.spawn(d, a.Specs, 0, emit)
	case RemoveEntity:
		r.kill(d, a.ID, CauseRemoved, 0, emit)
	case Kill:
		r.kill(d, a.ID, a.Cause, 0, emit)
	case UpdateMotion:
		r.updateMotion(d, a)
	case UpdateNeeds:
		r.updateNeeds(d, a, emit)
	case SetBehavior:
		r.setBehavior(d, a)
	case EatFlower:
		r.eatFlower(d, a, emit)
	case Drink:
		r.drink(d, a, emit)
	case CatchPrey:
		r.catchPrey(d, a, emit)
	case MateCommit:
		r.mate(d, a, emit)
	case RecordPregnancyMeal:
		r.pregnancyMeal(d, a.ID, emit)
	case PromoteAdult:
		r.promote(d, a.ID, emit)
	case GiveBirth:
		r.giveBirth(d, a.ParentID, emit)
	case SpawnFlower:
		r.spawnFlower(d, a.Position, emit)
	case SetWeather:
		if a.Weather.Type != d.s.Weather.Type {
			emit(Event{Kind: EventWeatherChanged, Value: a.Weather.Intensity})
		}
		d.s.Weather = a.Weather
	case AdvanceClock:
		r.advanceClock(d, a.Delta)
	case SetTimeOfDay:
		d.s.Clock.TimeOfDay = wrap01(a.Fraction)
	case SetSpeed:
		d.s.Speed = clamp(a.Speed, MinSpeed, MaxSpeed)
	case TogglePause:
		d.s.Paused = !d.s.Paused
	case GameOver:
		if !d.s.GameOver {
			emit(Event{Kind: EventGameOver})
		}
		d.s.GameOver = true
	}

	return d.s, ev
}

func (r *Reducer) species(sp Species) *config.SpeciesConfig {
	switch sp {
	case SpeciesRabbit:
		return &r.cfg.Rabbit
	case SpeciesFox:
		return &r.cfg.Fox
	default:
		return &r.cfg.Moose
	}
}

func (r *Reducer) initPopulation(d *draft, a InitPopulation) {
	fresh := NewState()
	fresh.Config = a.Config
	fresh.Weather = a.Weather
	fresh.Clock = a.Clock
	fresh.Speed = d.s.Speed
	*d = draft{s: fresh, entitiesCloned: true, flowersCloned: true}

	r.spawn(d, a.Spawns, 0, nil)
	for _, p := range a.Flowers {
		r.spawnFlower(d, p, nil)
	}
}

// spawn creates entities up to each species cap and returns how many were made.
func (r *Reducer) spawn(d *draft, specs []SpawnSpec, parent EntityID, emit func(Event)) int {
	made := 0
	for _, spec := range specs {
		limit := r.species(spec.Species).MaxPopulation
		if limit > 0 && d.s.Population[spec.Species] >= limit {
			continue
		}

		e := Entity{
			ID:       d.s.NextEntityID,
			Species:  spec.Species,
			Position: spec.Position,
			Hunger:   clamp01(spec.Hunger),
			Thirst:   clamp01(spec.Thirst),
			Behavior: BehaviorWandering,
			Alive:    true,
			Traits:   NewTraits(spec.Species),
		}
		e = e.withReproduction(Reproduction{Sex: spec.Sex, IsAdult: spec.Adult})
		d.s.NextEntityID++
		d.add(e)
		made++

		if emit != nil {
			emit(Event{Kind: EventBirth, Species: e.Species, EntityID: e.ID, OtherID: parent})
		}
	}
	return made
}

func (r *Reducer) kill(d *draft, id EntityID, cause DeathCause, by EntityID, emit func(Event)) bool {
	e, ok := d.remove(id)
	if !ok {
		return false
	}
	emit(Event{Kind: EventDeath, Species: e.Species, EntityID: e.ID, OtherID: by, Cause: cause})
	return true
}

func (r *Reducer) updateMotion(d *draft, a UpdateMotion) {
	e, ok := d.s.Entities[a.ID]
	if !ok {
		return
	}
	e.Position = a.Position
	e.Velocity = r3.Vec{X: a.Velocity.X, Z: a.Velocity.Z}
	if t, ok := e.Traits.(RabbitTraits); ok {
		t.HopPhase = a.HopPhase
		e.Traits = t
	}
	d.put(e)
}

func (r *Reducer) updateNeeds(d *draft, a UpdateNeeds, emit func(Event)) {
	e, ok := d.s.Entities[a.ID]
	if !ok {
		return
	}
	hunger, thirst := clamp01(a.Hunger), clamp01(a.Thirst)
	switch {
	case hunger <= 0:
		r.kill(d, a.ID, CauseStarvation, 0, emit)
		return
	case thirst <= 0:
		r.kill(d, a.ID, CauseDehydration, 0, emit)
		return
	}
	if e.Hunger == hunger && e.Thirst == thirst {
		return
	}
	e.Hunger, e.Thirst = hunger, thirst
	d.put(e)
}

func (r *Reducer) setBehavior(d *draft, a SetBehavior) {
	e, ok := d.s.Entities[a.ID]
	if !ok {
		return
	}
	t, isFox := e.Traits.(FoxTraits)
	if e.Behavior == a.Behavior && (!isFox || t.TargetID == a.TargetID) {
		return
	}
	e.Behavior = a.Behavior
	if isFox {
		t.TargetID = a.TargetID
		e.Traits = t
	}
	d.put(e)
}

func (r *Reducer) eatFlower(d *draft, a EatFlower, emit func(Event)) {
	e, ok := d.s.Entities[a.EaterID]
	if !ok || e.Species == SpeciesFox {
		return
	}
	if _, ok := d.s.Flowers[a.FlowerID]; !ok {
		return
	}
	delete(d.flowers(), a.FlowerID)

	sc := r.species(e.Species)
	e.Hunger = clamp01(e.Hunger + sc.FlowerNutrition)
	e.NeedsRev++

	var promote, birth bool
	if t, ok := e.Traits.(RabbitTraits); ok {
		t.MealsEaten++
		promote = !t.IsAdult && sc.MealsToAdult > 0 && t.MealsEaten >= sc.MealsToAdult
		birth = t.Pregnant && e.Hunger >= sc.LitterHungerMin
		e.Traits = t
	}
	d.put(e)
	emit(Event{Kind: EventAte, Species: e.Species, EntityID: e.ID, Value: e.Hunger})

	if promote {
		r.promote(d, e.ID, emit)
	}
	if birth {
		r.giveBirth(d, e.ID, emit)
	}
}

func (r *Reducer) drink(d *draft, a Drink, emit func(Event)) {
	e, ok := d.s.Entities[a.ID]
	if !ok {
		return
	}
	e.Thirst = 1
	e.NeedsRev++
	d.put(e)
	emit(Event{Kind: EventDrank, Species: e.Species, EntityID: e.ID})
}

func (r *Reducer) catchPrey(d *draft, a CatchPrey, emit func(Event)) {
	pred, ok := d.s.Entities[a.PredatorID]
	if !ok || pred.Species != SpeciesFox {
		return
	}
	prey, ok := d.s.Entities[a.PreyID]
	if !ok || prey.Species != SpeciesRabbit {
		return
	}

	r.kill(d, prey.ID, CausePredation, pred.ID, emit)

	pred.Hunger = 1
	pred.NeedsRev++
	t := pred.Traits.(FoxTraits)
	t.TargetID = 0
	pred.Traits = t
	d.put(pred)
	emit(Event{Kind: EventCaught, Species: SpeciesFox, EntityID: pred.ID, OtherID: prey.ID})

	if !t.IsAdult {
		r.promote(d, pred.ID, emit)
	}
	if t.Pregnant {
		r.pregnancyMeal(d, pred.ID, emit)
	}
}

func (r *Reducer) mate(d *draft, a MateCommit, emit func(Event)) {
	male, ok := d.s.Entities[a.MaleID]
	if !ok || male.Species != a.Species {
		return
	}
	female, ok := d.s.Entities[a.FemaleID]
	if !ok || female.Species != a.Species {
		return
	}
	mr, ok := male.Reproduction()
	if !ok {
		return
	}
	fr, _ := female.Reproduction()

	sc := r.species(a.Species)
	now := d.s.Clock.Elapsed
	switch {
	case mr.Sex != Male || fr.Sex != Female:
		return
	case !mr.IsAdult || !fr.IsAdult:
		return
	case mr.Pregnant || fr.Pregnant:
		return
	case !mr.CooldownExpired(now, sc.MateCooldown) || !fr.CooldownExpired(now, sc.MateCooldown):
		return
	case sc.MaxPopulation > 0 && d.s.Population[a.Species] >= sc.MaxPopulation:
		return
	}

	mr.Matings++
	mr.LastMatedAt = now
	fr.Matings++
	fr.LastMatedAt = now
	fr.Pregnant = true
	female = female.withReproduction(fr)
	if t, ok := female.Traits.(FoxTraits); ok {
		t.MealsWhilePregnant = 0
		female.Traits = t
	}
	d.put(male.withReproduction(mr))
	d.put(female)
	emit(Event{Kind: EventMated, Species: a.Species, EntityID: male.ID, OtherID: female.ID})
}

func (r *Reducer) pregnancyMeal(d *draft, id EntityID, emit func(Event)) {
	e, ok := d.s.Entities[id]
	if !ok {
		return
	}
	t, ok := e.Traits.(FoxTraits)
	if !ok || !t.Pregnant {
		return
	}
	t.MealsWhilePregnant++
	e.Traits = t
	d.put(e)

	if need := r.cfg.Fox.MealsForLitter; t.MealsWhilePregnant >= need {
		r.giveBirth(d, id, emit)
	}
}

func (r *Reducer) promote(d *draft, id EntityID, emit func(Event)) {
	e, ok := d.s.Entities[id]
	if !ok {
		return
	}
	rep, ok := e.Reproduction()
	if !ok || rep.IsAdult {
		return
	}
	rep.IsAdult = true
	d.put(e.withReproduction(rep))
	emit(Event{Kind: EventMatured, Species: e.Species, EntityID: id})
}

// giveBirth spawns a litter near a pregnant parent and clears the pregnancy.
// Litters beyond the population cap are suppressed; the pregnancy still ends.
func (r *Reducer) giveBirth(d *draft, id EntityID, emit func(Event)) {
	parent, ok := d.s.Entities[id]
	if !ok {
		return
	}
	rep, ok := parent.Reproduction()
	if !ok || !rep.Pregnant {
		return
	}
	rep.Pregnant = false
	parent = parent.withReproduction(rep)
	if t, ok := parent.Traits.(FoxTraits); ok {
		t.MealsWhilePregnant = 0
		parent.Traits = t
	}
	d.put(parent)

	sc := r.species(parent.Species)
	size := sc.LitterMin
	if sc.LitterMax > sc.LitterMin {
		size += r.rng.Intn(sc.LitterMax - sc.LitterMin + 1)
	}

	specs := make([]SpawnSpec, 0, size)
	for i := 0; i < size; i++ {
		angle := r.rng.Float64() * 2 * math.Pi
		dist := r.rng.Float64() * sc.LitterJitter
		sex := Female
		if r.rng.Intn(2) == 1 {
			sex = Male
		}
		specs = append(specs, SpawnSpec{
			Species: parent.Species,
			Position: r3.Vec{
				X: parent.Position.X + math.Cos(angle)*dist,
				Y: parent.Position.Y,
				Z: parent.Position.Z + math.Sin(angle)*dist,
			},
			Sex:    sex,
			Hunger: newbornNeeds,
			Thirst: newbornNeeds,
		})
	}

	if made := r.spawn(d, specs, parent.ID, emit); made < size {
		emit(Event{Kind: EventLitterSuppressed, Species: parent.Species, EntityID: parent.ID, Value: float64(size - made)})
	}
}

func (r *Reducer) spawnFlower(d *draft, p r3.Vec, emit func(Event)) {
	if limit := r.cfg.Derived.MaxFlowers; limit > 0 && len(d.s.Flowers) >= limit {
		return
	}
	f := Flower{ID: d.s.NextFlowerID, Position: p, Alive: true}
	d.s.NextFlowerID++
	d.flowers()[f.ID] = f
	if emit != nil {
		emit(Event{Kind: EventFlowerSpawned, Value: float64(f.ID)})
	}
}

func (r *Reducer) advanceClock(d *draft, delta float64) {
	if delta <= 0 {
		return
	}
	d.s.Clock.Elapsed += delta
	if day := r.cfg.Simulation.DayLength; day > 0 {
		d.s.Clock.TimeOfDay = wrap01(d.s.Clock.TimeOfDay + delta/day)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func wrap01(v float64) float64 {
	v -= math.Floor(v)
	if v >= 1 {
		return 0
	}
	return v
}
