package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// decideFox runs the fox priority chain:
// manual > mating pause > chase > water > mate > wander.
// done is true after a catch: the fox dispatches nothing else this tick.
func (s *BehaviorSystem) decideFox(ctx *TickContext, a *agent) (force r3.Vec, moving, done bool) {
	if a.control != nil {
		a.mind.ChaseTarget = 0
		return s.manual(a), true, false
	}
	if hold(&a.mind.MatePause, ctx.Dt) {
		a.mind.ChaseTarget = 0
		a.mind.Behavior = store.BehaviorSeekingMate
		return r3.Vec{}, false, false
	}

	if a.needs.Hunger < a.sc.HuntThreshold {
		if prey, dist, ok := s.pickPrey(ctx, a); ok {
			if dist <= a.sc.CatchRadius {
				ctx.claims[prey.ID] = a.id
				ctx.Dispatch(store.CatchPrey{PredatorID: a.id, PreyID: prey.ID})
				a.mind.ChaseTarget = 0
				a.mind.Behavior = store.BehaviorWandering
				a.motion.Vel = r3.Vec{}
				return r3.Vec{}, false, true
			}
			a.mind.ChaseTarget = prey.ID
			a.mind.Behavior = store.BehaviorChasing
			return Seek(a.motion.Pos, a.motion.Vel, prey.Position, *a.body), true, false
		}
	}
	a.mind.ChaseTarget = 0

	if hold(&a.mind.DrinkPause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorDrinking
		return r3.Vec{}, false, false
	}
	if a.needs.Thirst < a.sc.NeedThreshold {
		if f, moving, ok := s.seekWater(ctx, a); ok {
			return f, moving, false
		}
	} else {
		a.mind.HasWater = false
	}

	if s.canMate(ctx, a) {
		if f, moving, ok := s.seekMate(ctx, a); ok {
			return f, moving, false
		}
	}
	return s.wander(ctx, a), true, false
}

// pickPrey returns the nearest rabbit within the effective aggro radius,
// re-chosen every tick. Rabbits already caught this tick are skipped.
func (s *BehaviorSystem) pickPrey(ctx *TickContext, a *agent) (store.Entity, float64, bool) {
	claimed := func(e store.Entity) bool {
		_, taken := ctx.claims[e.ID]
		return taken
	}
	return Nearest(ctx.View.Rabbits, a.motion.Pos, a.sc.AggroRadius*ctx.Visibility, 0, claimed)
}
