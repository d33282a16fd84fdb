// Package systems provides the simulation core: the terrain oracle, the
// obstacle index, steering, needs and the per-species behavior systems.
package systems

import "math"

// ObstacleGrid provides radius queries over static obstacles using a
// cell-based grid. It is built once and never mutated, so it is safe to share.
type ObstacleGrid struct {
	cellSize  float64
	cols      int
	rows      int
	originX   float64
	originZ   float64
	obstacles []Obstacle
	cells     [][]int32 // indices into obstacles
	maxRadius float64
}

// NewObstacleGrid indexes obstacles over the square [-half, half]².
// If keep is non-nil only obstacles it accepts are indexed. If radius is
// positive it replaces each kept obstacle's radius (e.g. trunk colliders).
func NewObstacleGrid(obstacles []Obstacle, half, cellSize float64, keep func(Obstacle) bool, radius float64) *ObstacleGrid {
	size := 2 * half
	cols := int(size/cellSize) + 1
	rows := int(size/cellSize) + 1

	g := &ObstacleGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		originX:  -half,
		originZ:  -half,
		cells:    make([][]int32, cols*rows),
	}

	for _, o := range obstacles {
		if keep != nil && !keep(o) {
			continue
		}
		if radius > 0 {
			o.Radius = radius
		}
		idx := g.cellIndex(o.Pos.X, o.Pos.Z)
		g.cells[idx] = append(g.cells[idx], int32(len(g.obstacles)))
		g.obstacles = append(g.obstacles, o)
		g.maxRadius = math.Max(g.maxRadius, o.Radius)
	}
	return g
}

// Len returns the number of indexed obstacles.
func (g *ObstacleGrid) Len() int { return len(g.obstacles) }

// MaxRadius returns the largest indexed obstacle radius.
func (g *ObstacleGrid) MaxRadius() float64 { return g.maxRadius }

// All returns the indexed obstacles. The slice must not be modified.
func (g *ObstacleGrid) All() []Obstacle { return g.obstacles }

// ForEachNearby calls visit once for every obstacle whose center lies within
// radius of (x, z). Only cells overlapping the query square are scanned.
func (g *ObstacleGrid) ForEachNearby(x, z, radius float64, visit func(o *Obstacle)) {
	if radius < 0 || len(g.obstacles) == 0 {
		return
	}
	minCol, minRow := g.cellCoords(x-radius, z-radius)
	maxCol, maxRow := g.cellCoords(x+radius, z+radius)
	radiusSq := radius * radius

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, i := range g.cells[row*g.cols+col] {
				o := &g.obstacles[i]
				dx, dz := o.Pos.X-x, o.Pos.Z-z
				if dx*dx+dz*dz <= radiusSq {
					visit(o)
				}
			}
		}
	}
}

// cellCoords returns the clamped cell column and row for a position.
func (g *ObstacleGrid) cellCoords(x, z float64) (col, row int) {
	col = int(math.Floor((x - g.originX) / g.cellSize))
	row = int(math.Floor((z - g.originZ) / g.cellSize))

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *ObstacleGrid) cellIndex(x, z float64) int {
	col, row := g.cellCoords(x, z)
	return row*g.cols + col
}
