package components

import "gonum.org/v1/gonum/spatial/r3"

// Motion holds an agent's local kinematic state. It is authoritative between
// store syncs; the store copy lags by at most one sync interval.
type Motion struct {
	Pos r3.Vec // Y follows the terrain
	Vel r3.Vec // Y is always 0
}

// Hop tracks the rabbit locomotion phase.
type Hop struct {
	Phase float64 // radians, advances with distance travelled
}
