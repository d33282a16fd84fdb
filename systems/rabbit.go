package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// decideRabbit runs the rabbit priority chain:
// manual > mating pause > drinking/eating pause (interrupted by danger) >
// flee > water > mate > forage.
func (s *BehaviorSystem) decideRabbit(ctx *TickContext, a *agent) (r3.Vec, bool) {
	if a.control != nil {
		return s.manual(a), true
	}
	if hold(&a.mind.MatePause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorSeekingMate
		return r3.Vec{}, false
	}

	fleeRadius := a.sc.FleeRadius * ctx.Visibility
	threat, _, danger := Nearest(ctx.View.Foxes, a.motion.Pos, fleeRadius, 0, nil)

	if danger {
		a.mind.DrinkPause, a.mind.EatPause = 0, 0
	}
	if hold(&a.mind.DrinkPause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorDrinking
		return r3.Vec{}, false
	}
	if hold(&a.mind.EatPause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorEating
		return r3.Vec{}, false
	}

	if danger {
		a.mind.FoodTarget = 0
		a.mind.IdleTimer = 0
		a.mind.Behavior = store.BehaviorFleeing
		f := Flee(a.motion.Pos, a.motion.Vel, threat.Position, fleeRadius, *a.body)
		return r3.Scale(a.sc.FleeWeight, f), true
	}

	if a.needs.Thirst < a.sc.NeedThreshold {
		if f, moving, ok := s.seekWater(ctx, a); ok {
			return f, moving
		}
	} else {
		a.mind.HasWater = false
	}

	if s.canMate(ctx, a) {
		if f, moving, ok := s.seekMate(ctx, a); ok {
			return f, moving
		}
	}

	if a.needs.Hunger < a.sc.ForageBelow || a.mind.FoodTarget != 0 {
		return s.forage(ctx, a)
	}
	return s.wander(ctx, a), true
}
