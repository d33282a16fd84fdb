package systems

import (
	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// NeedsTick is the outcome of one needs update.
type NeedsTick struct {
	Hunger float64
	Thirst float64
	Dead   bool
}

// DecayRates returns the per-second hunger and thirst decay for a life stage.
func DecayRates(sc *config.SpeciesConfig, adult bool) (hunger, thirst float64) {
	if !adult {
		if sc.JuvenileHungerDecay > 0 {
			hunger = sc.JuvenileHungerDecay
		} else {
			hunger = sc.HungerDecay
		}
		if sc.JuvenileThirstDecay > 0 {
			thirst = sc.JuvenileThirstDecay
		} else {
			thirst = sc.ThirstDecay
		}
		return hunger, thirst
	}
	return sc.HungerDecay, sc.ThirstDecay
}

// AdoptNeeds copies the store's hunger and thirst into n when the store has
// changed them since the last adoption (eating, drinking, a kill).
func AdoptNeeds(n *components.Needs, e store.Entity) {
	if e.NeedsRev == n.Rev {
		return
	}
	n.Hunger, n.Thirst = e.Hunger, e.Thirst
	n.Rev = e.NeedsRev
}

// TickNeeds decays n linearly. When either need reaches 0 it dispatches a
// Kill and reports Dead; the caller must stop processing the agent for this
// tick. Otherwise a needs sync is dispatched every syncInterval seconds.
func TickNeeds(n *components.Needs, id store.EntityID, hungerRate, thirstRate, syncInterval, dt float64, dispatch func(store.Action)) NeedsTick {
	n.Hunger = clamp01(n.Hunger - hungerRate*dt)
	n.Thirst = clamp01(n.Thirst - thirstRate*dt)

	switch {
	case n.Hunger <= 0:
		dispatch(store.Kill{ID: id, Cause: store.CauseStarvation})
		return NeedsTick{Hunger: n.Hunger, Thirst: n.Thirst, Dead: true}
	case n.Thirst <= 0:
		dispatch(store.Kill{ID: id, Cause: store.CauseDehydration})
		return NeedsTick{Hunger: n.Hunger, Thirst: n.Thirst, Dead: true}
	}

	n.SyncTimer -= dt
	if n.SyncTimer <= 0 {
		n.SyncTimer += syncInterval
		if n.SyncTimer <= 0 {
			n.SyncTimer = syncInterval
		}
		dispatch(store.UpdateNeeds{ID: id, Hunger: n.Hunger, Thirst: n.Thirst})
	}
	return NeedsTick{Hunger: n.Hunger, Thirst: n.Thirst}
}
