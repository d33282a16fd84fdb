package systems

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// WorldView is the read-only snapshot every agent decides against during a
// tick. Per-species slices are ordered by ID so scans and tie-breaks are
// deterministic.
type WorldView struct {
	State   *store.State
	Rabbits []store.Entity
	Foxes   []store.Entity
	Moose   []store.Entity
	Flowers []store.Flower
}

// NewWorldView indexes a snapshot.
func NewWorldView(s *store.State) *WorldView {
	return &WorldView{
		State:   s,
		Rabbits: s.EntitiesOf(store.SpeciesRabbit),
		Foxes:   s.EntitiesOf(store.SpeciesFox),
		Moose:   s.EntitiesOf(store.SpeciesMoose),
		Flowers: s.FlowerList(),
	}
}

// Of returns the entities of a species.
func (v *WorldView) Of(sp store.Species) []store.Entity {
	switch sp {
	case store.SpeciesRabbit:
		return v.Rabbits
	case store.SpeciesFox:
		return v.Foxes
	default:
		return v.Moose
	}
}

// Nearest returns the entity in list closest to pos within radius, skipping
// exclude and any entity skip rejects. Ties go to the lower ID.
func Nearest(list []store.Entity, pos r3.Vec, radius float64, exclude store.EntityID, skip func(store.Entity) bool) (store.Entity, float64, bool) {
	var best store.Entity
	bestD := math.Inf(1)
	for _, e := range list {
		if e.ID == exclude || (skip != nil && skip(e)) {
			continue
		}
		if d := flatDist(pos, e.Position); d < radius && d < bestD {
			best, bestD = e, d
		}
	}
	return best, bestD, !math.IsInf(bestD, 1)
}

// TickContext is shared by every agent during one tick.
type TickContext struct {
	View       *WorldView
	Dt         float64
	Visibility float64
	Dispatch   func(store.Action)
	Rng        *rand.Rand

	// prey id -> fox id, for catches committed earlier this tick
	claims map[store.EntityID]store.EntityID
	// flowers eaten earlier this tick
	eaten map[store.FlowerID]bool
}

// agent bundles one controller's components for a decision pass.
type agent struct {
	entity  ecs.Entity
	id      store.EntityID
	species store.Species
	self    store.Entity // snapshot record
	sc      *config.SpeciesConfig

	motion  *components.Motion
	body    *components.Body
	needs   *components.Needs
	mind    *components.Mind
	hop     *components.Hop
	control *components.Control // nil unless player-driven
}

// BehaviorSystem runs the per-species state machines over all controllers.
type BehaviorSystem struct {
	cfg     *config.Config
	terrain *Terrain
	mover   *Mover

	filter     ecs.Filter6[components.Agent, components.Motion, components.Body, components.Needs, components.Mind, components.Hop]
	mapper     *ecs.Map6[components.Agent, components.Motion, components.Body, components.Needs, components.Mind, components.Hop]
	controlMap *ecs.Map1[components.Control]

	order []ecs.Entity // reused between ticks
}

// NewBehaviorSystem creates a behavior system over the controllers in w.
func NewBehaviorSystem(w *ecs.World, cfg *config.Config, terrain *Terrain, mover *Mover) *BehaviorSystem {
	return &BehaviorSystem{
		cfg:        cfg,
		terrain:    terrain,
		mover:      mover,
		filter:     *ecs.NewFilter6[components.Agent, components.Motion, components.Body, components.Needs, components.Mind, components.Hop](w),
		mapper:     ecs.NewMap6[components.Agent, components.Motion, components.Body, components.Needs, components.Mind, components.Hop](w),
		controlMap: ecs.NewMap1[components.Control](w),
	}
}

// Species returns the tuning for a species.
func (s *BehaviorSystem) Species(sp store.Species) *config.SpeciesConfig {
	switch sp {
	case store.SpeciesRabbit:
		return &s.cfg.Rabbit
	case store.SpeciesFox:
		return &s.cfg.Fox
	default:
		return &s.cfg.Moose
	}
}

// Attach creates a controller mirroring a store entity. Sync timers start at
// random offsets so agents do not all sync on the same tick.
func (s *BehaviorSystem) Attach(e store.Entity, rng *rand.Rand) ecs.Entity {
	sc := s.Species(e.Species)
	sim := s.cfg.Simulation

	id := components.Agent{ID: e.ID, Species: e.Species}
	motion := components.Motion{Pos: e.Position, Vel: r3.Vec{X: e.Velocity.X, Z: e.Velocity.Z}}
	motion.Pos.Y = s.terrain.SurfaceY(e.Position.X, e.Position.Z, sim.SinkFactor)
	body := components.BodyFromSpecies(sc, e.IsAdult())
	needs := components.Needs{
		Hunger:    e.Hunger,
		Thirst:    e.Thirst,
		Rev:       e.NeedsRev,
		SyncTimer: rng.Float64() * sim.NeedsSyncInterval,
	}
	mind := components.Mind{
		Behavior:    e.Behavior,
		WanderAngle: (rng.Float64()*2 - 1) * math.Pi,
		MotionSync:  rng.Float64() * sim.MotionSyncInterval,
	}
	if r, ok := e.Reproduction(); ok {
		mind.MatingsSeen = r.Matings
	}
	if t, ok := e.Traits.(store.FoxTraits); ok {
		mind.ChaseTarget = t.TargetID
	}
	var hop components.Hop
	if t, ok := e.Traits.(store.RabbitTraits); ok {
		hop.Phase = t.HopPhase
	}
	return s.mapper.NewEntity(&id, &motion, &body, &needs, &mind, &hop)
}

// Controller returns the components of a controller entity.
func (s *BehaviorSystem) Controller(e ecs.Entity) (*components.Agent, *components.Motion, *components.Needs, *components.Mind) {
	id, m, _, n, mind, _ := s.mapper.Get(e)
	return id, m, n, mind
}

// SetControl hands an agent to the player. dir is the raw input direction;
// a zero dir brakes.
func (s *BehaviorSystem) SetControl(e ecs.Entity, dir r3.Vec) {
	if s.controlMap.HasAll(e) {
		s.controlMap.Get(e).Dir = dir
		return
	}
	s.controlMap.Add(e, &components.Control{Dir: dir})
}

// ClearControl returns an agent to autonomous behavior.
func (s *BehaviorSystem) ClearControl(e ecs.Entity) {
	if s.controlMap.HasAll(e) {
		s.controlMap.Remove(e)
	}
}

// Controlled reports whether e is player-driven.
func (s *BehaviorSystem) Controlled(e ecs.Entity) bool {
	return s.controlMap.HasAll(e)
}

// Update runs one decision pass for every controller, in ID order. Agents
// whose store record is gone are skipped; the caller despawns them.
func (s *BehaviorSystem) Update(ctx *TickContext) {
	ctx.claims = make(map[store.EntityID]store.EntityID)
	ctx.eaten = make(map[store.FlowerID]bool)

	s.order = s.order[:0]
	query := s.filter.Query()
	for query.Next() {
		s.order = append(s.order, query.Entity())
	}
	slices.SortFunc(s.order, func(a, b ecs.Entity) int {
		ia, _, _, _, _, _ := s.mapper.Get(a)
		ib, _, _, _, _, _ := s.mapper.Get(b)
		return cmp.Compare(ia.ID, ib.ID)
	})

	for _, e := range s.order {
		id, m, b, n, mind, hop := s.mapper.Get(e)
		self, ok := ctx.View.State.Entity(id.ID)
		if !ok {
			continue
		}
		if _, caught := ctx.claims[id.ID]; caught {
			continue
		}
		a := &agent{
			entity:  e,
			id:      id.ID,
			species: id.Species,
			self:    self,
			sc:      s.Species(id.Species),
			motion:  m,
			body:    b,
			needs:   n,
			mind:    mind,
			hop:     hop,
		}
		if s.controlMap.HasAll(e) {
			a.control = s.controlMap.Get(e)
		}
		s.tickAgent(ctx, a)
	}
}

// tickAgent runs the shared pipeline around a species decision.
func (s *BehaviorSystem) tickAgent(ctx *TickContext, a *agent) {
	AdoptNeeds(a.needs, a.self)

	adult := a.self.IsAdult()
	*a.body = components.BodyFromSpecies(a.sc, adult)

	hr, tr := DecayRates(a.sc, adult)
	if res := TickNeeds(a.needs, a.id, hr, tr, s.cfg.Simulation.NeedsSyncInterval, ctx.Dt, ctx.Dispatch); res.Dead {
		return
	}

	if rep, ok := a.self.Reproduction(); ok && rep.Matings > a.mind.MatingsSeen {
		a.mind.MatingsSeen = rep.Matings
		a.mind.MatePause = a.sc.MatePause
	}

	var intent r3.Vec
	var moving, done bool
	switch a.species {
	case store.SpeciesRabbit:
		intent, moving = s.decideRabbit(ctx, a)
	case store.SpeciesFox:
		intent, moving, done = s.decideFox(ctx, a)
	default:
		intent, moving = s.decideMoose(ctx, a)
	}
	if done {
		return
	}

	if moving {
		if a.species == store.SpeciesRabbit && !adult {
			a.body.MaxSpeed *= 0.5 + 0.5*math.Abs(math.Sin(a.hop.Phase))
		}
		before := a.motion.Pos
		s.mover.Move(a.motion, *a.body, intent, ctx.Dt)
		if a.species == store.SpeciesRabbit {
			a.hop.Phase = math.Mod(a.hop.Phase+a.sc.HopFrequency*flatDist(before, a.motion.Pos), 2*math.Pi)
		}
	} else {
		s.mover.Halt(a.motion)
	}

	s.syncBehavior(ctx, a)
	s.syncMotion(ctx, a)
}

func (s *BehaviorSystem) syncBehavior(ctx *TickContext, a *agent) {
	target := store.EntityID(0)
	if t, ok := a.self.Traits.(store.FoxTraits); ok {
		target = t.TargetID
	}
	if a.mind.Behavior == a.self.Behavior && a.mind.ChaseTarget == target {
		return
	}
	ctx.Dispatch(store.SetBehavior{ID: a.id, Behavior: a.mind.Behavior, TargetID: a.mind.ChaseTarget})
}

func (s *BehaviorSystem) syncMotion(ctx *TickContext, a *agent) {
	a.mind.MotionSync -= ctx.Dt
	if a.mind.MotionSync > 0 {
		return
	}
	a.mind.MotionSync = s.cfg.Simulation.MotionSyncInterval
	ctx.Dispatch(store.UpdateMotion{
		ID:       a.id,
		Position: a.motion.Pos,
		Velocity: a.motion.Vel,
		HopPhase: a.hop.Phase,
	})
}

// manual steers toward the player's input direction, braking when it is zero.
func (s *BehaviorSystem) manual(a *agent) r3.Vec {
	a.mind.Behavior = store.BehaviorWandering
	dir := flat(a.control.Dir)
	vel := flat(a.motion.Vel)
	if r3.Norm(dir) <= minNorm {
		return limit(r3.Scale(-1, vel), a.body.MaxForce)
	}
	desired := r3.Scale(a.body.MaxSpeed, r3.Unit(dir))
	return limit(r3.Sub(desired, vel), a.body.MaxForce)
}

// hold counts down a timed pause. It reports whether the pause is still active.
func hold(timer *float64, dt float64) bool {
	if *timer <= 0 {
		return false
	}
	*timer -= dt
	return true
}

// wander returns a wander force and labels the agent as wandering.
func (s *BehaviorSystem) wander(ctx *TickContext, a *agent) r3.Vec {
	a.mind.Behavior = store.BehaviorWandering
	return Wander(a.motion.Pos, a.motion.Vel, &a.mind.WanderAngle, ctx.Rng, s.cfg.Steering, *a.body)
}

// seekWater commits to the nearest drinking point and drinks on arrival.
// The last result is false when the world has no water.
func (s *BehaviorSystem) seekWater(ctx *TickContext, a *agent) (force r3.Vec, moving, ok bool) {
	pos := a.motion.Pos
	if s.terrain.IsInWater(pos.X, pos.Z, a.sc.DrinkBuffer) {
		ctx.Dispatch(store.Drink{ID: a.id})
		a.mind.HasWater = false
		a.mind.DrinkPause = a.sc.DrinkPause
		a.mind.Behavior = store.BehaviorDrinking
		return r3.Vec{}, false, true
	}
	if !a.mind.HasWater {
		target, ok := s.terrain.NearestWater(pos)
		if !ok {
			return r3.Vec{}, false, false
		}
		a.mind.WaterTarget, a.mind.HasWater = target, true
	}
	a.mind.Behavior = store.BehaviorSeekingWater
	return Seek(pos, a.motion.Vel, a.mind.WaterTarget, *a.body), true, true
}

// canMate reports whether the agent itself is ready to breed.
func (s *BehaviorSystem) canMate(ctx *TickContext, a *agent) bool {
	rep, ok := a.self.Reproduction()
	if !ok || !rep.IsAdult || rep.Pregnant {
		return false
	}
	if !rep.CooldownExpired(ctx.View.State.Clock.Elapsed, a.sc.MateCooldown) {
		return false
	}
	if a.needs.Hunger <= a.sc.BreedHunger || a.needs.Thirst <= a.sc.NeedThreshold {
		return false
	}
	return a.sc.MaxPopulation <= 0 || ctx.View.State.Count(a.species) < a.sc.MaxPopulation
}

// seekMate approaches the nearest eligible partner. Only the male commits the
// mating, once, on contact, where both partners stand still. The last result
// is false when no partner is in range.
func (s *BehaviorSystem) seekMate(ctx *TickContext, a *agent) (force r3.Vec, moving, ok bool) {
	rep, _ := a.self.Reproduction()
	now := ctx.View.State.Clock.Elapsed
	partner, dist, ok := Nearest(ctx.View.Of(a.species), a.motion.Pos, a.sc.MateRadius, a.id, func(e store.Entity) bool {
		r, ok := e.Reproduction()
		return !ok || r.Sex == rep.Sex || !r.IsAdult || r.Pregnant || !r.CooldownExpired(now, a.sc.MateCooldown)
	})
	if !ok {
		return r3.Vec{}, false, false
	}

	a.mind.Behavior = store.BehaviorSeekingMate
	if dist <= a.sc.ContactRadius {
		if rep.Sex == store.Male {
			ctx.Dispatch(store.MateCommit{Species: a.species, MaleID: a.id, FemaleID: partner.ID})
		}
		return r3.Vec{}, false, true
	}
	return Seek(a.motion.Pos, a.motion.Vel, partner.Position, *a.body), true, true
}

// forage follows the committed flower, choosing a new one at random among
// the k nearest when needed, and eats on arrival. A new choice may instead
// start an idle wander interlude. It reports whether the agent is moving.
func (s *BehaviorSystem) forage(ctx *TickContext, a *agent) (r3.Vec, bool) {
	if hold(&a.mind.IdleTimer, ctx.Dt) {
		return s.wander(ctx, a), true
	}

	var target store.Flower
	found := false
	if id := a.mind.FoodTarget; id != 0 && !ctx.eaten[id] {
		target, found = ctx.View.State.Flower(id)
	}
	if !found {
		a.mind.FoodTarget = 0
		if a.sc.IdleChance > 0 && ctx.Rng.Float64() < a.sc.IdleChance {
			a.mind.IdleTimer = a.sc.IdleMin + ctx.Rng.Float64()*(a.sc.IdleMax-a.sc.IdleMin)
			return s.wander(ctx, a), true
		}
		target, found = chooseFlower(ctx.View.Flowers, a.motion.Pos, a.sc.FoodChoices, ctx.Rng, ctx.eaten)
		if !found {
			return s.wander(ctx, a), true
		}
		a.mind.FoodTarget = target.ID
	}

	if flatDist(a.motion.Pos, target.Position) <= a.sc.EatRadius {
		ctx.eaten[target.ID] = true
		ctx.Dispatch(store.EatFlower{EaterID: a.id, FlowerID: target.ID})
		a.mind.FoodTarget = 0
		a.mind.EatPause = a.sc.EatPause
		a.mind.Behavior = store.BehaviorEating
		return r3.Vec{}, false
	}
	a.mind.Behavior = store.BehaviorSeekingFood
	return Seek(a.motion.Pos, a.motion.Vel, target.Position, *a.body), true
}

// chooseFlower picks uniformly among the k flowers nearest pos, ignoring
// those in eaten.
func chooseFlower(flowers []store.Flower, pos r3.Vec, k int, rng *rand.Rand, eaten map[store.FlowerID]bool) (store.Flower, bool) {
	type cand struct {
		f store.Flower
		d float64
	}
	cands := make([]cand, 0, len(flowers))
	for _, f := range flowers {
		if !eaten[f.ID] {
			cands = append(cands, cand{f, flatDist(pos, f.Position)})
		}
	}
	if len(cands) == 0 {
		return store.Flower{}, false
	}
	slices.SortFunc(cands, func(a, b cand) int {
		if c := cmp.Compare(a.d, b.d); c != 0 {
			return c
		}
		return cmp.Compare(a.f.ID, b.f.ID)
	})
	k = min(max(k, 1), len(cands))
	return cands[rng.Intn(k)].f, true
}
