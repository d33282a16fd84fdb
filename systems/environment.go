package systems

import (
	"math"
	"math/rand"

	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

// Daylight returns 0 at midnight and 1 at noon for a time-of-day fraction.
func Daylight(timeOfDay float64) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*timeOfDay)
}

// Visibility returns the multiplier applied to flee and aggro radii. It
// drops to night_visibility at midnight and is further reduced by rain
// and fog, and by snow at half strength.
func Visibility(cfg *config.Config, clock store.Clock, w store.Weather) float64 {
	night := clamp01(cfg.Simulation.NightVisibility)
	v := night + (1-night)*Daylight(clock.TimeOfDay)

	loss := cfg.Weather.VisibilityLoss * clamp01(w.Intensity)
	switch w.Type {
	case store.WeatherRain, store.WeatherFog:
		v *= 1 - loss
	case store.WeatherSnow:
		v *= 1 - loss/2
	}
	return clamp01(v)
}

// NextWeather picks the weather that follows at time now.
func NextWeather(cfg *config.Config, rng *rand.Rand, now float64) store.Weather {
	wc := cfg.Weather
	w := store.Weather{
		Type:         store.WeatherType(rng.Intn(store.NumWeatherTypes)),
		Intensity:    0.3 + 0.7*rng.Float64(),
		NextChangeAt: now + wc.MinDuration,
	}
	if wc.MaxDuration > wc.MinDuration {
		w.NextChangeAt += rng.Float64() * (wc.MaxDuration - wc.MinDuration)
	}
	if w.Type == store.WeatherClear {
		w.Intensity = 0
	}
	return w
}
