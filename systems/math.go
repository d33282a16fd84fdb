package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// minNorm is the length below which a vector has no usable direction.
const minNorm = 1e-9

// defaultHeading is used when neither the input nor the fallback has a direction.
var defaultHeading = r3.Vec{X: 1}

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// smoothstep is the cubic Hermite ramp on [0, 1].
func smoothstep(u float64) float64 {
	u = clamp01(u)
	return u * u * (3 - 2*u)
}

// flat drops the vertical component.
func flat(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}

// flatDist returns the XZ-plane distance between two points.
func flatDist(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// unitOr normalizes v, returning fallback (itself normalized) or the default
// heading when v is too short to have a direction.
func unitOr(v, fallback r3.Vec) r3.Vec {
	if r3.Norm(v) > minNorm {
		return r3.Unit(v)
	}
	if r3.Norm(fallback) > minNorm {
		return r3.Unit(fallback)
	}
	return defaultHeading
}

// limit scales v down so its length does not exceed maxLen.
func limit(v r3.Vec, maxLen float64) r3.Vec {
	n := r3.Norm(v)
	if n > maxLen && n > 0 {
		return r3.Scale(maxLen/n, v)
	}
	return v
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	return math.Remainder(angle, 2*math.Pi)
}
