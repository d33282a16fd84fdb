package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// SetManualControl drives agent id from a raw input direction in the XZ
// plane instead of its AI. A zero direction brakes. Returns false if the
// agent no longer exists.
func (s *Simulation) SetManualControl(id store.EntityID, dir r3.Vec) bool {
	e, ok := s.controllers[id]
	if !ok {
		return false
	}
	s.behavior.SetControl(e, dir)
	return true
}

// ClearManualControl hands agent id back to its AI.
func (s *Simulation) ClearManualControl(id store.EntityID) {
	if e, ok := s.controllers[id]; ok {
		s.behavior.ClearControl(e)
	}
}

// ManuallyControlled reports whether agent id is player-driven.
func (s *Simulation) ManuallyControlled(id store.EntityID) bool {
	e, ok := s.controllers[id]
	return ok && s.behavior.Controlled(e)
}

// Motion returns the live controller motion of agent id, which runs ahead of
// the store between position syncs.
func (s *Simulation) Motion(id store.EntityID) (components.Motion, bool) {
	e, ok := s.controllers[id]
	if !ok {
		return components.Motion{}, false
	}
	_, m, _, _ := s.behavior.Controller(e)
	return *m, true
}

// ControllerFields returns the live controller values of agent id in
// components.AgentFieldDescriptors order.
func (s *Simulation) ControllerFields(id store.EntityID) ([]float64, bool) {
	e, ok := s.controllers[id]
	if !ok {
		return nil, false
	}
	_, m, n, mind := s.behavior.Controller(e)
	return components.AgentFieldValues(m, n, mind), true
}

// TogglePause pauses or resumes every agent tick.
func (s *Simulation) TogglePause() {
	s.store.Dispatch(store.TogglePause{})
}

// SetSpeed sets the global speed multiplier. The store clamps it.
func (s *Simulation) SetSpeed(speed float64) {
	s.store.Dispatch(store.SetSpeed{Speed: speed})
}

// SetTimeOfDay jumps the clock to a time-of-day fraction (0.5 = noon).
func (s *Simulation) SetTimeOfDay(fraction float64) {
	s.store.Dispatch(store.SetTimeOfDay{Fraction: fraction})
}
