package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// decideMoose runs the moose chain: manual > pauses > water > food > wander.
// Moose have no predator and do not breed.
func (s *BehaviorSystem) decideMoose(ctx *TickContext, a *agent) (r3.Vec, bool) {
	if a.control != nil {
		return s.manual(a), true
	}
	if hold(&a.mind.DrinkPause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorDrinking
		return r3.Vec{}, false
	}
	if hold(&a.mind.EatPause, ctx.Dt) {
		a.mind.Behavior = store.BehaviorEating
		return r3.Vec{}, false
	}

	if a.needs.Thirst < a.sc.NeedThreshold {
		if f, moving, ok := s.seekWater(ctx, a); ok {
			return f, moving
		}
	} else {
		a.mind.HasWater = false
	}

	if a.needs.Hunger < a.sc.ForageBelow || a.mind.FoodTarget != 0 {
		return s.forage(ctx, a)
	}
	return s.wander(ctx, a), true
}
