package store

import "gonum.org/v1/gonum/spatial/r3"

// Action is a requested state transition. The set is closed: only the types
// in this file implement it.
type Action interface {
	isAction()
}

// InitPopulation replaces the world with a fresh population.
type InitPopulation struct {
	Config  SimConfig
	Spawns  []SpawnSpec
	Flowers []r3.Vec
	Weather Weather
	Clock   Clock
}

// SpawnEntities creates entities, subject to species population caps.
type SpawnEntities struct {
	Specs []SpawnSpec
}

// RemoveEntity deletes an entity without a death cause.
type RemoveEntity struct {
	ID EntityID
}

// UpdateMotion syncs position, velocity and (for rabbits) hop phase.
type UpdateMotion struct {
	ID       EntityID
	Position r3.Vec
	Velocity r3.Vec
	HopPhase float64
}

// UpdateNeeds syncs hunger and thirst. A value at 0 kills the entity.
type UpdateNeeds struct {
	ID     EntityID
	Hunger float64
	Thirst float64
}

// SetBehavior updates the behavior label and, for foxes, the chase target.
type SetBehavior struct {
	ID       EntityID
	Behavior Behavior
	TargetID EntityID
}

// EatFlower consumes a flower. A flower already eaten makes this a no-op.
type EatFlower struct {
	EaterID  EntityID
	FlowerID FlowerID
}

// Drink refills thirst.
type Drink struct {
	ID EntityID
}

// Kill removes an entity with a cause. Killing an absent entity is a no-op.
type Kill struct {
	ID    EntityID
	Cause DeathCause
}

// CatchPrey resolves a successful chase: the prey dies and the predator eats.
// The first catch dispatched for a prey wins; later ones are no-ops.
type CatchPrey struct {
	PredatorID EntityID
	PreyID     EntityID
}

// MateCommit starts a pregnancy. Only the male side dispatches it.
type MateCommit struct {
	Species  Species
	MaleID   EntityID
	FemaleID EntityID
}

// RecordPregnancyMeal counts a kill made while pregnant.
type RecordPregnancyMeal struct {
	ID EntityID
}

// PromoteAdult marks a juvenile as adult.
type PromoteAdult struct {
	ID EntityID
}

// GiveBirth resolves a pregnancy into a litter near the parent.
type GiveBirth struct {
	ParentID EntityID
}

// SpawnFlower grows a flower.
type SpawnFlower struct {
	Position r3.Vec
}

// SetWeather replaces the current weather.
type SetWeather struct {
	Weather Weather
}

// AdvanceClock moves simulated time forward.
type AdvanceClock struct {
	Delta float64
}

// SetTimeOfDay jumps the day cycle to a fraction in [0,1).
type SetTimeOfDay struct {
	Fraction float64
}

// SetSpeed sets the global speed multiplier.
type SetSpeed struct {
	Speed float64
}

// TogglePause flips the pause flag.
type TogglePause struct{}

// GameOver stops the simulation.
type GameOver struct{}

func (InitPopulation) isAction()      {}
func (SpawnEntities) isAction()       {}
func (RemoveEntity) isAction()        {}
func (UpdateMotion) isAction()        {}
func (UpdateNeeds) isAction()         {}
func (SetBehavior) isAction()         {}
func (EatFlower) isAction()           {}
func (Drink) isAction()               {}
func (Kill) isAction()                {}
func (CatchPrey) isAction()           {}
func (MateCommit) isAction()          {}
func (RecordPregnancyMeal) isAction() {}
func (PromoteAdult) isAction()        {}
func (GiveBirth) isAction()           {}
func (SpawnFlower) isAction()         {}
func (SetWeather) isAction()          {}
func (AdvanceClock) isAction()        {}
func (SetTimeOfDay) isAction()        {}
func (SetSpeed) isAction()            {}
func (TogglePause) isAction()         {}
func (GameOver) isAction()            {}
