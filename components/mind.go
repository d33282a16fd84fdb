package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// Mind holds the behavior state machine's per-agent memory.
type Mind struct {
	Behavior    store.Behavior
	WanderAngle float64 // radians, random-walks each tick

	// Timed holds, counted down in seconds
	MatePause  float64
	DrinkPause float64
	EatPause   float64
	IdleTimer  float64

	FoodTarget  store.FlowerID // committed flower, 0 = none
	WaterTarget r3.Vec         // committed shore point
	HasWater    bool

	ChaseTarget store.EntityID // foxes only, 0 = none
	MatingsSeen int            // store mating count already turned into a pause

	MotionSync float64 // seconds until the next position sync
}

// Control is present while an agent is player-driven.
type Control struct {
	Dir r3.Vec // raw input direction in the XZ plane
}
