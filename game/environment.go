package game

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/systems"
)

const (
	placementAttempts = 64
	flowerClearance   = 0.5
)

// updateEnvironment advances the clock, rolls the weather when it is due and
// regrows flowers.
func (s *Simulation) updateEnvironment(dt float64) {
	s.store.Dispatch(store.AdvanceClock{Delta: dt})

	st := s.store.State()
	if st.Clock.Elapsed >= st.Weather.NextChangeAt {
		s.store.Dispatch(store.SetWeather{Weather: systems.NextWeather(s.cfg, s.rng, st.Clock.Elapsed)})
	}

	s.regrowFlowers(dt)
}

// regrowFlowers spawns one flower per elapsed regrowth interval while the
// meadow is below its cap.
func (s *Simulation) regrowFlowers(dt float64) {
	interval := s.cfg.Simulation.FlowerRegrowInterval
	if interval <= 0 {
		return
	}
	s.regrowTimer += dt
	for s.regrowTimer >= interval {
		s.regrowTimer -= interval
		if len(s.store.State().Flowers) >= s.cfg.Derived.MaxFlowers {
			continue
		}
		if p, ok := s.randomGroundPoint(flowerClearance); ok {
			s.store.Dispatch(store.SpawnFlower{Position: p})
		}
	}
}

// checkGameOver ends the run once both rabbits and foxes are gone.
func (s *Simulation) checkGameOver() {
	st := s.store.State()
	if st.GameOver || st.Count(store.SpeciesRabbit) > 0 || st.Count(store.SpeciesFox) > 0 {
		return
	}
	s.store.Dispatch(store.GameOver{})
	slog.Info("game over", "tick", s.tick, "sim_time", st.Clock.Elapsed)
}

// randomGroundPoint picks a dry point below the snow line that is at least
// clearance away from every obstacle.
func (s *Simulation) randomGroundPoint(clearance float64) (r3.Vec, bool) {
	half := s.cfg.World.HalfSize - clearance
	for attempt := 0; attempt < placementAttempts; attempt++ {
		x := (s.rng.Float64()*2 - 1) * half
		z := (s.rng.Float64()*2 - 1) * half
		if !s.terrain.IsWalkable(x, z, clearance) {
			continue
		}

		blocked := false
		s.obstacles.ForEachNearby(x, z, clearance+s.obstacles.MaxRadius(), func(o *systems.Obstacle) {
			if math.Hypot(o.Pos.X-x, o.Pos.Z-z) < o.Radius+clearance {
				blocked = true
			}
		})
		if blocked {
			continue
		}
		return r3.Vec{X: x, Y: s.terrain.HeightAt(x, z), Z: z}, true
	}
	return r3.Vec{}, false
}
