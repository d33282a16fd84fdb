// Package game drives an ecosystem run: it advances the clock and weather,
// regrows flowers, runs the agent controllers against the store and keeps the
// controller world in step with the store's entities.
package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
	"github.com/patrikandersson91/ecosystem-sub000/systems"
	"github.com/patrikandersson91/ecosystem-sub000/telemetry"
)

// Simulation holds the complete run state.
type Simulation struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	// Static world geometry, shared read-only by every agent
	terrain   *systems.Terrain
	obstacles *systems.ObstacleGrid
	mover     *systems.Mover

	store    *store.Store
	world    *ecs.World
	behavior *systems.BehaviorSystem

	// store id -> controller entity
	controllers map[store.EntityID]ecs.Entity

	tick        int64
	regrowTimer float64

	// Telemetry
	runID     string
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
	eventLog  *telemetry.EventLog
	pending   []telemetry.EventRecord
	totals    map[store.EventKind]int64
	onWindow  func(telemetry.WindowStats)
	logStats  bool
	logEvents bool
}

// NewSimulation builds the world geometry, the store and the telemetry sinks,
// then spawns the configured initial population.
func NewSimulation(cfg *config.Config, opts Options) (*Simulation, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.World.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	terrain := systems.NewTerrain(cfg)
	layoutSeed := cfg.World.Seed
	if layoutSeed == 0 {
		layoutSeed = seed
	}
	obstacles := systems.GenerateObstacles(cfg, terrain, layoutSeed)
	half := cfg.World.HalfSize
	all := systems.NewObstacleGrid(obstacles, half, cfg.Obstacles.CellSize, nil, 0)
	trees := systems.NewObstacleGrid(obstacles, half, cfg.Obstacles.CellSize, func(o systems.Obstacle) bool {
		return o.Kind == systems.ObstacleTree
	}, cfg.Obstacles.TreeCollisionRadius)
	mover := systems.NewMover(cfg, terrain, all, trees)

	world := ecs.NewWorld()

	s := &Simulation{
		cfg:         cfg,
		rng:         rng,
		seed:        seed,
		terrain:     terrain,
		obstacles:   all,
		mover:       mover,
		store:       store.New(cfg, rng),
		world:       world,
		behavior:    systems.NewBehaviorSystem(world, cfg, terrain, mover),
		controllers: make(map[store.EntityID]ecs.Entity),
		runID:       uuid.NewString(),
		totals:      make(map[store.EventKind]int64),
		logStats:    opts.LogStats,
		logEvents:   opts.LogEvents,
	}

	if err := s.setupTelemetry(opts); err != nil {
		return nil, err
	}

	s.Reset()
	return s, nil
}

// Step advances the simulation by one frame. The raw frame delta is clamped
// and scaled by the speed multiplier. Nothing happens while paused or after
// game over.
func (s *Simulation) Step(frameDelta float64) {
	st := s.store.State()
	if st.Paused || st.GameOver {
		return
	}
	if limit := s.cfg.Simulation.MaxFrameDelta; limit > 0 {
		frameDelta = math.Min(frameDelta, limit)
	}
	dt := frameDelta * st.Speed
	if dt <= 0 {
		return
	}

	s.perf.RecordFrame()
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseEnvironment)
	s.updateEnvironment(dt)

	s.perf.StartPhase(telemetry.PhaseSnapshot)
	snap := s.store.State()
	ctx := &systems.TickContext{
		View:       systems.NewWorldView(snap),
		Dt:         dt,
		Visibility: systems.Visibility(s.cfg, snap.Clock, snap.Weather),
		Dispatch:   s.store.Dispatch,
		Rng:        s.rng,
	}

	s.perf.StartPhase(telemetry.PhaseBehavior)
	s.behavior.Update(ctx)

	s.perf.StartPhase(telemetry.PhaseLifecycle)
	s.syncControllers()
	s.checkGameOver()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	s.flushTelemetry()

	s.perf.EndTick()
}

// State returns the current store snapshot.
func (s *Simulation) State() *store.State {
	return s.store.State()
}

// Store returns the authoritative store.
func (s *Simulation) Store() *store.Store {
	return s.store
}

// Terrain returns the height and water oracle.
func (s *Simulation) Terrain() *systems.Terrain {
	return s.terrain
}

// Obstacles returns every static obstacle.
func (s *Simulation) Obstacles() []systems.Obstacle {
	return s.obstacles.All()
}

// Tick returns the number of steps taken since the simulation was built.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// RunID returns the id stamped on this run's telemetry.
func (s *Simulation) RunID() string {
	return s.runID
}

// Seed returns the RNG seed.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Close flushes pending telemetry and closes all output sinks.
func (s *Simulation) Close() error {
	var errs []error
	if err := s.flushEvents(); err != nil {
		errs = append(errs, err)
	}
	if err := s.output.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing output: %w", err))
	}
	if err := s.eventLog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing event log: %w", err))
	}
	return errors.Join(errs...)
}
