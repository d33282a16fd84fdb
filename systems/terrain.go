package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

const (
	// Pond edge harmonics: base radius * (1 + lobe terms), clamped.
	pondLobe2   = 0.18
	pondLobe3   = 0.12
	pondJitter  = 0.04
	pondMinEdge = 0.65
	pondMaxEdge = 1.45

	// Spacing of precomputed drinking points along the river.
	waterPointSpacing = 1.0
	pondWaterPoints   = 24
)

// Terrain is the height and water oracle. All queries are pure functions of
// (x, z) and are defined for every real input, including points outside the
// playable square.
type Terrain struct {
	cfg  config.TerrainConfig
	half float64

	// drinking points, inside water
	waterPoints []r3.Vec
}

// NewTerrain builds the oracle for a configuration.
func NewTerrain(cfg *config.Config) *Terrain {
	t := &Terrain{
		cfg:  cfg.Terrain,
		half: cfg.World.HalfSize,
	}
	t.buildWaterPoints()
	return t
}

// HalfSize returns the half extent of the playable square.
func (t *Terrain) HalfSize() float64 { return t.half }

// WaterLevel returns the water surface height.
func (t *Terrain) WaterLevel() float64 { return t.cfg.WaterLevel }

// SnowLine returns the soft and hard snow thresholds.
func (t *Terrain) SnowLine() (soft, hard float64) {
	return t.cfg.SnowSoft, t.cfg.SnowHard
}

// RiverZ returns the river centerline z for a given x.
func (t *Terrain) RiverZ(x float64) float64 {
	r := t.cfg.River
	return r.A*math.Sin(r.B*x) + r.C*math.Sin(r.D*x+r.Phase)
}

// riverDist is the distance across the river from its centerline.
func (t *Terrain) riverDist(x, z float64) float64 {
	return math.Abs(z - t.RiverZ(x))
}

// PondRadius returns the edge radius of pond i in direction angle.
func (t *Terrain) PondRadius(i int, angle float64) float64 {
	p := t.cfg.Ponds[i]
	k := 1 +
		pondLobe2*math.Sin(2*angle+p.Phase) +
		pondLobe3*math.Sin(3*angle+1.7*p.Phase) +
		pondJitter*math.Sin(7*angle+2.3*p.Phase)
	return p.Radius * clamp(k, pondMinEdge, pondMaxEdge)
}

// pondDist returns the distance from pond i's center and its edge radius in that direction.
func (t *Terrain) pondDist(i int, x, z float64) (d, edge float64) {
	p := t.cfg.Ponds[i]
	dx, dz := x-p.X, z-p.Z
	return math.Hypot(dx, dz), t.PondRadius(i, math.Atan2(dz, dx))
}

// parabolicDepth is maxDepth at d=0 and zero at d=edge.
func parabolicDepth(d, edge, maxDepth float64) float64 {
	if d >= edge {
		return 0
	}
	u := d / edge
	return maxDepth * (1 - u*u)
}

// baseHeight is the uncarved terrain: waves plus mountain bumps.
func (t *Terrain) baseHeight(x, z float64) float64 {
	h := 0.0
	for _, w := range t.cfg.Waves {
		h += w.Amp * math.Sin(w.FreqX*x+w.PhaseX) * math.Cos(w.FreqZ*z+w.PhaseZ)
	}
	for _, m := range t.cfg.Mountains {
		dx, dz := x-m.X, z-m.Z
		h += m.Height * math.Exp(-(dx*dx+dz*dz)/(2*m.Sigma*m.Sigma))
	}
	return h
}

// carve lowers h toward the water bed inside a body of water and toward the
// bank height just outside it. It never raises h.
func (t *Terrain) carve(h, d, edge, maxDepth float64) float64 {
	if d < edge {
		return math.Min(h, t.cfg.WaterLevel-parabolicDepth(d, edge, maxDepth))
	}
	if bw := t.cfg.BankWidth; bw > 0 && d < edge+bw {
		s := smoothstep((d - edge) / bw)
		return math.Min(h, t.cfg.BankHeight*(1-s)+h*s)
	}
	return h
}

// HeightAt returns the ground height at (x, z).
func (t *Terrain) HeightAt(x, z float64) float64 {
	h := t.baseHeight(x, z)
	h = t.carve(h, t.riverDist(x, z), t.cfg.River.Width/2, t.cfg.River.MaxDepth)
	for i, p := range t.cfg.Ponds {
		d, edge := t.pondDist(i, x, z)
		h = t.carve(h, d, edge, p.MaxDepth)
	}
	return h
}

// WaterDepthAt returns the water depth at (x, z), or 0 on dry ground.
func (t *Terrain) WaterDepthAt(x, z float64) float64 {
	depth := parabolicDepth(t.riverDist(x, z), t.cfg.River.Width/2, t.cfg.River.MaxDepth)
	for i, p := range t.cfg.Ponds {
		d, edge := t.pondDist(i, x, z)
		depth = math.Max(depth, parabolicDepth(d, edge, p.MaxDepth))
	}
	return depth
}

// IsInWater reports whether (x, z) lies within buffer of a river or pond.
// With buffer 0 it is true exactly where WaterDepthAt is positive.
func (t *Terrain) IsInWater(x, z, buffer float64) bool {
	if t.riverDist(x, z) < t.cfg.River.Width/2+buffer {
		return true
	}
	for i := range t.cfg.Ponds {
		if d, edge := t.pondDist(i, x, z); d < edge+buffer {
			return true
		}
	}
	return false
}

// SurfaceY returns the rendered height of an agent at (x, z): the ground or
// water surface, lowered by sink times the local water depth.
func (t *Terrain) SurfaceY(x, z, sink float64) float64 {
	return math.Max(t.HeightAt(x, z), t.cfg.WaterLevel) - sink*t.WaterDepthAt(x, z)
}

// Gradient returns the central finite-difference height gradient in the XZ plane.
func (t *Terrain) Gradient(x, z float64) r3.Vec {
	d := t.cfg.GradientDelta
	if d <= 0 {
		d = 0.5
	}
	return r3.Vec{
		X: (t.HeightAt(x+d, z) - t.HeightAt(x-d, z)) / (2 * d),
		Z: (t.HeightAt(x, z+d) - t.HeightAt(x, z-d)) / (2 * d),
	}
}

// IsWalkable reports whether (x, z) is inside the world, dry by clearance and
// below the soft snow line.
func (t *Terrain) IsWalkable(x, z, clearance float64) bool {
	if math.Abs(x) > t.half || math.Abs(z) > t.half {
		return false
	}
	return !t.IsInWater(x, z, clearance) && t.HeightAt(x, z) < t.cfg.SnowSoft
}

// buildWaterPoints samples drinkable points along the river centerline and
// around each pond at half its radius.
func (t *Terrain) buildWaterPoints() {
	t.waterPoints = t.waterPoints[:0]
	for x := -t.half; x <= t.half; x += waterPointSpacing {
		z := t.RiverZ(x)
		if math.Abs(z) <= t.half {
			t.waterPoints = append(t.waterPoints, r3.Vec{X: x, Z: z})
		}
	}
	for i, p := range t.cfg.Ponds {
		t.waterPoints = append(t.waterPoints, r3.Vec{X: p.X, Z: p.Z})
		for k := 0; k < pondWaterPoints; k++ {
			a := 2 * math.Pi * float64(k) / pondWaterPoints
			r := 0.5 * t.PondRadius(i, a)
			pt := r3.Vec{X: p.X + r*math.Cos(a), Z: p.Z + r*math.Sin(a)}
			if math.Abs(pt.X) <= t.half && math.Abs(pt.Z) <= t.half {
				t.waterPoints = append(t.waterPoints, pt)
			}
		}
	}
}

// NearestWater returns the closest drinking point to pos. ok is false when the
// world has no water.
func (t *Terrain) NearestWater(pos r3.Vec) (r3.Vec, bool) {
	best, bestD := r3.Vec{}, math.Inf(1)
	for _, p := range t.waterPoints {
		if d := flatDist(pos, p); d < bestD {
			best, bestD = p, d
		}
	}
	return best, !math.IsInf(bestD, 1)
}
