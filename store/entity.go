// Package store holds the authoritative world state and the ordered
// action-dispatch path that is the only way to mutate it.
package store

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// EntityID identifies an animal. IDs are never reused within a run.
type EntityID uint32

// FlowerID identifies a flower.
type FlowerID uint32

// Species tags the entity variant.
type Species uint8

const (
	SpeciesRabbit Species = iota
	SpeciesFox
	SpeciesMoose

	numSpecies
)

// AllSpecies lists every species in tag order.
var AllSpecies = [...]Species{SpeciesRabbit, SpeciesFox, SpeciesMoose}

// String returns the lowercase species name.
func (s Species) String() string {
	switch s {
	case SpeciesRabbit:
		return "rabbit"
	case SpeciesFox:
		return "fox"
	case SpeciesMoose:
		return "moose"
	default:
		return "unknown"
	}
}

// Behavior is the label an agent exposes for rendering and logging.
type Behavior uint8

const (
	BehaviorWandering Behavior = iota
	BehaviorSeekingFood
	BehaviorSeekingWater
	BehaviorFleeing
	BehaviorChasing
	BehaviorEating
	BehaviorDrinking
	BehaviorSeekingMate
)

var behaviorNames = [...]string{
	"wandering",
	"seeking_food",
	"seeking_water",
	"fleeing",
	"chasing",
	"eating",
	"drinking",
	"seeking_mate",
}

// String returns the snake_case label.
func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return "unknown"
}

// Sex of a reproducing animal.
type Sex uint8

const (
	Female Sex = iota
	Male
)

// String returns "female" or "male".
func (s Sex) String() string {
	if s == Male {
		return "male"
	}
	return "female"
}

// Entity is the common record for every animal. Species-specific data lives
// in Traits, whose concrete type always matches Species.
type Entity struct {
	ID       EntityID
	Species  Species
	Position r3.Vec // Y follows the terrain
	Velocity r3.Vec // Y is kept at 0 for ground agents
	Hunger   float64
	Thirst   float64
	Behavior Behavior
	Alive    bool

	// NeedsRev increments whenever the store itself changes Hunger or Thirst
	// (eating, drinking, a kill). Controllers adopt the stored values when
	// they see a newer revision.
	NeedsRev uint32

	Traits Traits
}

// Traits is the species-specific payload of an Entity.
type Traits interface {
	species() Species
}

// Reproduction is shared by species that mate.
type Reproduction struct {
	Sex         Sex
	IsAdult     bool
	Pregnant    bool
	Matings     int
	LastMatedAt float64 // clock time of the last mating, meaningful when Matings > 0
}

// CooldownExpired reports whether enough time has passed since the last mating.
func (r Reproduction) CooldownExpired(now, cooldown float64) bool {
	return r.Matings == 0 || now-r.LastMatedAt >= cooldown
}

// RabbitTraits is the rabbit payload.
type RabbitTraits struct {
	Reproduction
	HopPhase   float64
	MealsEaten int
}

// FoxTraits is the fox payload.
type FoxTraits struct {
	Reproduction
	TargetID           EntityID // weak reference, 0 = none
	MealsWhilePregnant int
}

// MooseTraits is the moose payload. Moose do not reproduce.
type MooseTraits struct{}

func (RabbitTraits) species() Species { return SpeciesRabbit }
func (FoxTraits) species() Species    { return SpeciesFox }
func (MooseTraits) species() Species  { return SpeciesMoose }

// NewTraits returns the zero payload for a species.
func NewTraits(s Species) Traits {
	switch s {
	case SpeciesRabbit:
		return RabbitTraits{}
	case SpeciesFox:
		return FoxTraits{}
	default:
		return MooseTraits{}
	}
}

// Reproduction returns the mating state for species that have one.
func (e Entity) Reproduction() (Reproduction, bool) {
	switch t := e.Traits.(type) {
	case RabbitTraits:
		return t.Reproduction, true
	case FoxTraits:
		return t.Reproduction, true
	default:
		return Reproduction{}, false
	}
}

// IsAdult reports adulthood. Moose are always adult.
func (e Entity) IsAdult() bool {
	if r, ok := e.Reproduction(); ok {
		return r.IsAdult
	}
	return true
}

// withReproduction returns a copy of e with its reproduction state replaced.
func (e Entity) withReproduction(r Reproduction) Entity {
	switch t := e.Traits.(type) {
	case RabbitTraits:
		t.Reproduction = r
		e.Traits = t
	case FoxTraits:
		t.Reproduction = r
		e.Traits = t
	}
	return e
}

// Flower is a consumable resource. Consumed flowers are removed from the state.
type Flower struct {
	ID       FlowerID
	Position r3.Vec
	Alive    bool
}

// SpawnSpec describes an entity to create. The store assigns the ID.
type SpawnSpec struct {
	Species  Species
	Position r3.Vec
	Sex      Sex
	Adult    bool
	Hunger   float64
	Thirst   float64
}
