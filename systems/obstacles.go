package systems

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// ObstacleKind identifies a static obstacle type.
type ObstacleKind uint8

const (
	ObstacleTree ObstacleKind = iota
	ObstacleStone
	ObstacleBush
)

// String returns the obstacle kind name.
func (k ObstacleKind) String() string {
	switch k {
	case ObstacleTree:
		return "tree"
	case ObstacleStone:
		return "stone"
	default:
		return "bush"
	}
}

// Obstacle is a static collider. It is never moved or removed after generation.
type Obstacle struct {
	Kind   ObstacleKind
	Pos    r3.Vec
	Radius float64
}

// GenerateObstacles places trees, stones and bushes deterministically from
// seed. Trees cluster where a simplex forest-density field is high; bushes
// prefer forest edges; stones go anywhere. Nothing is placed in or near
// water or above the soft snow line.
func GenerateObstacles(cfg *config.Config, t *Terrain, seed int64) []Obstacle {
	oc := cfg.Obstacles
	rng := rand.New(rand.NewSource(seed))
	forest := opensimplex.NewNormalized(seed)
	density := func(p r3.Vec) float64 {
		return forest.Eval2(p.X*oc.ForestScale, p.Z*oc.ForestScale)
	}

	out := make([]Obstacle, 0, oc.Trees+oc.Stones+oc.Bushes)
	place := func(kind ObstacleKind, radius float64, accept func(r3.Vec) bool) {
		for attempt := 0; attempt < max(oc.MaxAttempts, 1); attempt++ {
			p := r3.Vec{
				X: (rng.Float64()*2 - 1) * (t.half - radius),
				Z: (rng.Float64()*2 - 1) * (t.half - radius),
			}
			if !t.IsWalkable(p.X, p.Z, oc.WaterClearance+radius) {
				continue
			}
			if accept != nil && !accept(p) {
				continue
			}
			p.Y = t.HeightAt(p.X, p.Z)
			out = append(out, Obstacle{Kind: kind, Pos: p, Radius: radius})
			return
		}
	}

	for i := 0; i < oc.Trees; i++ {
		place(ObstacleTree, oc.TreeRadius, func(p r3.Vec) bool {
			return density(p) >= oc.ForestThreshold
		})
	}
	for i := 0; i < oc.Stones; i++ {
		place(ObstacleStone, oc.StoneRadius, nil)
	}
	edge := oc.ForestThreshold - 0.15
	for i := 0; i < oc.Bushes; i++ {
		place(ObstacleBush, oc.BushRadius, func(p r3.Vec) bool {
			return density(p) >= edge
		})
	}
	return out
}
