package components

import "github.com/patrikandersson91/ecosystem-sub000/config"

// Body holds physical limits of an agent.
type Body struct {
	Radius   float64
	Mass     float64
	MaxSpeed float64
	MaxForce float64
}

// BodyFromSpecies returns the body for a species. Juveniles are slower.
func BodyFromSpecies(sc *config.SpeciesConfig, adult bool) Body {
	b := Body{
		Radius:   sc.Radius,
		Mass:     sc.Mass,
		MaxSpeed: sc.MaxSpeed,
		MaxForce: sc.MaxForce,
	}
	if !adult && sc.JuvenileSpeed > 0 {
		b.MaxSpeed *= sc.JuvenileSpeed
	}
	return b
}
