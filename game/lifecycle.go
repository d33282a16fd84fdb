package game

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// Reset replaces the world with a fresh random population drawn from the
// configured initial counts.
func (s *Simulation) Reset() {
	specs, flowers := s.RandomPopulation()
	s.Populate(specs, flowers)
}

// RandomPopulation places the configured initial agents and flowers at random
// dry, obstacle-free points. Agents start adult with alternating sexes.
func (s *Simulation) RandomPopulation() ([]store.SpawnSpec, []r3.Vec) {
	sim := s.cfg.Simulation
	counts := [len(store.AllSpecies)]int{sim.InitialRabbits, sim.InitialFoxes, sim.InitialMoose}

	var specs []store.SpawnSpec
	for i, sp := range store.AllSpecies {
		radius := s.behavior.Species(sp).Radius
		for n := 0; n < counts[i]; n++ {
			p, ok := s.randomGroundPoint(radius)
			if !ok {
				slog.Warn("no room for initial agent", "species", sp.String())
				continue
			}
			sex := store.Female
			if n%2 == 1 {
				sex = store.Male
			}
			specs = append(specs, store.SpawnSpec{
				Species:  sp,
				Position: p,
				Sex:      sex,
				Adult:    true,
				Hunger:   0.6 + 0.4*s.rng.Float64(),
				Thirst:   0.6 + 0.4*s.rng.Float64(),
			})
		}
	}

	flowers := make([]r3.Vec, 0, sim.InitialFlowers)
	for n := 0; n < sim.InitialFlowers; n++ {
		if p, ok := s.randomGroundPoint(flowerClearance); ok {
			flowers = append(flowers, p)
		}
	}
	return specs, flowers
}

// Populate replaces the world with exactly the given agents and flowers. The
// clock restarts at the configured time of day under clear weather.
func (s *Simulation) Populate(specs []store.SpawnSpec, flowers []r3.Vec) {
	for id, e := range s.controllers {
		s.world.RemoveEntity(e)
		delete(s.controllers, id)
	}

	sim := s.cfg.Simulation
	s.store.Dispatch(store.InitPopulation{
		Config: store.SimConfig{
			InitialRabbits: sim.InitialRabbits,
			InitialFoxes:   sim.InitialFoxes,
			InitialMoose:   sim.InitialMoose,
			InitialFlowers: sim.InitialFlowers,
		},
		Spawns:  specs,
		Flowers: flowers,
		Weather: store.Weather{Type: store.WeatherClear, NextChangeAt: s.cfg.Weather.MinDuration},
		Clock:   store.Clock{TimeOfDay: sim.StartTimeOfDay},
	})
	s.regrowTimer = 0

	s.syncControllers()
	s.collector.RegisterPopulation(s.store.State())

	st := s.store.State()
	slog.Info("population initialized",
		"rabbits", st.Count(store.SpeciesRabbit),
		"foxes", st.Count(store.SpeciesFox),
		"moose", st.Count(store.SpeciesMoose),
		"flowers", len(st.Flowers),
	)
}

// syncControllers despawns controllers whose store entity is gone and
// attaches controllers for new entities, in ID order.
func (s *Simulation) syncControllers() {
	st := s.store.State()

	var gone []store.EntityID
	for id := range s.controllers {
		if _, ok := st.Entity(id); !ok {
			gone = append(gone, id)
		}
	}
	slices.Sort(gone)
	for _, id := range gone {
		s.world.RemoveEntity(s.controllers[id])
		delete(s.controllers, id)
	}

	for _, sp := range store.AllSpecies {
		for _, e := range st.EntitiesOf(sp) {
			if _, ok := s.controllers[e.ID]; !ok {
				s.controllers[e.ID] = s.behavior.Attach(e, s.rng)
			}
		}
	}
}

// Controllers returns the number of live agent controllers.
func (s *Simulation) Controllers() int {
	return len(s.controllers)
}
