package components

import "math"

// FieldDescriptor describes an agent field for the viewer panel.
type FieldDescriptor struct {
	ID     string  // Unique identifier
	Label  string  // Display name
	Format string  // Printf format (e.g., "%.2f")
	Min    float64 // Minimum value (for bars)
	Max    float64 // Maximum value (for bars)
	IsBar  bool    // True to render as progress bar
}

// AgentFieldDescriptors returns metadata for the fields shown for a followed agent.
// The order matches AgentFieldValues.
func AgentFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "hunger", Label: "Hunger", Format: "%.2f", Min: 0, Max: 1, IsBar: true},
		{ID: "thirst", Label: "Thirst", Format: "%.2f", Min: 0, Max: 1, IsBar: true},
		{ID: "speed", Label: "Speed", Format: "%.1f"},
		{ID: "wander", Label: "Wander", Format: "%.2f"},
	}
}

// AgentFieldValues returns the values for AgentFieldDescriptors.
func AgentFieldValues(m *Motion, n *Needs, mind *Mind) []float64 {
	speed := m.Vel.X*m.Vel.X + m.Vel.Z*m.Vel.Z
	return []float64{n.Hunger, n.Thirst, math.Sqrt(speed), mind.WanderAngle}
}
