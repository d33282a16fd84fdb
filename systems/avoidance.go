package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// Mover turns an intent force into motion: it adds obstacle and terrain
// avoidance, integrates, resolves hard tree collisions, reflects off the
// world boundary and sinks the agent into water.
type Mover struct {
	terrain   *Terrain
	obstacles *ObstacleGrid
	trees     *ObstacleGrid
	steer     config.SteeringConfig
	sink      float64
}

// NewMover creates a mover over the shared, read-only world geometry.
func NewMover(cfg *config.Config, terrain *Terrain, obstacles, trees *ObstacleGrid) *Mover {
	return &Mover{
		terrain:   terrain,
		obstacles: obstacles,
		trees:     trees,
		steer:     cfg.Steering,
		sink:      cfg.Simulation.SinkFactor,
	}
}

// ObstacleForce pushes away from every obstacle whose edge is within the
// avoidance radius. Each push is weighted by penetration into that radius
// over distance, so closer and deeper obstacles dominate.
func (mv *Mover) ObstacleForce(pos r3.Vec, agentRadius float64, b components.Body) r3.Vec {
	query := mv.steer.AvoidQueryRadius
	if query <= 0 || mv.obstacles == nil {
		return r3.Vec{}
	}
	margin := math.Max(mv.steer.AvoidMargin, minNorm)

	var push r3.Vec
	mv.obstacles.ForEachNearby(pos.X, pos.Z, query+agentRadius+mv.obstacles.MaxRadius(), func(o *Obstacle) {
		away := flat(r3.Sub(pos, o.Pos))
		dist := r3.Norm(away)
		gap := dist - o.Radius - agentRadius
		if gap >= query {
			return
		}
		penetration := (query - gap) / query
		push = r3.Add(push, r3.Scale(penetration/math.Max(dist, margin), unitOr(away, defaultHeading)))
	})
	if r3.Norm(push) == 0 {
		return push
	}
	return limit(r3.Scale(b.MaxForce*mv.steer.ObstacleWeight, push), b.MaxForce*mv.steer.ObstacleWeight)
}

// SnowPush returns the magnitude of the downhill push at height h. It rises
// smoothly from 0 at the soft threshold to 1 at the hard cap and keeps
// growing linearly above it.
func SnowPush(h, soft, hard float64) float64 {
	if h <= soft {
		return 0
	}
	u := (h - soft) / (hard - soft)
	if u <= 1 {
		return smoothstep(u)
	}
	return 1 + 2*(u-1)
}

// TerrainForce points downhill along the negative height gradient with a
// magnitude given by SnowPush. It is zero below the soft snow line and on
// flat ground.
func (mv *Mover) TerrainForce(pos r3.Vec, b components.Body) r3.Vec {
	soft, hard := mv.terrain.SnowLine()
	mag := SnowPush(mv.terrain.HeightAt(pos.X, pos.Z), soft, hard)
	if mag == 0 {
		return r3.Vec{}
	}
	down := r3.Scale(-1, mv.terrain.Gradient(pos.X, pos.Z))
	if r3.Norm(down) <= minNorm {
		return r3.Vec{}
	}
	return r3.Scale(mag*b.MaxForce*mv.steer.TerrainWeight, r3.Unit(down))
}

// ResolveTreeCollisions moves pos out of any tree trunk it overlaps and
// removes the velocity component pointing into the trunk. The correction
// runs a fixed number of passes since fixing one overlap can cause another.
func (mv *Mover) ResolveTreeCollisions(pos, vel r3.Vec, agentRadius float64) (r3.Vec, r3.Vec) {
	if mv.trees == nil || mv.trees.Len() == 0 {
		return pos, vel
	}
	passes := max(mv.steer.CollisionPasses, 1)
	for pass := 0; pass < passes; pass++ {
		moved := false
		mv.trees.ForEachNearby(pos.X, pos.Z, agentRadius+mv.trees.MaxRadius(), func(o *Obstacle) {
			minDist := o.Radius + agentRadius
			out := flat(r3.Sub(pos, o.Pos))
			if r3.Norm(out) >= minDist {
				return
			}
			n := unitOr(out, r3.Scale(-1, vel))
			pos.X = o.Pos.X + n.X*minDist
			pos.Z = o.Pos.Z + n.Z*minDist
			if vn := r3.Dot(vel, n); vn < 0 {
				vel = r3.Sub(vel, r3.Scale(vn, n))
			}
			moved = true
		})
		if !moved {
			break
		}
	}
	return pos, vel
}

// ReflectBounds clamps pos inside the world square, flipping the velocity
// component that points out of it.
func (mv *Mover) ReflectBounds(pos, vel r3.Vec, agentRadius float64) (r3.Vec, r3.Vec) {
	lim := mv.terrain.HalfSize() - agentRadius
	if pos.X < -lim {
		pos.X = -lim
		vel.X = math.Abs(vel.X)
	} else if pos.X > lim {
		pos.X = lim
		vel.X = -math.Abs(vel.X)
	}
	if pos.Z < -lim {
		pos.Z = -lim
		vel.Z = math.Abs(vel.Z)
	} else if pos.Z > lim {
		pos.Z = lim
		vel.Z = -math.Abs(vel.Z)
	}
	return pos, vel
}

// Move applies intent plus avoidance to m for one step of dt seconds.
func (mv *Mover) Move(m *components.Motion, b components.Body, intent r3.Vec, dt float64) {
	force := intent
	force = r3.Add(force, mv.ObstacleForce(m.Pos, b.Radius, b))
	force = r3.Add(force, mv.TerrainForce(m.Pos, b))

	pos, vel := Integrate(m.Pos, m.Vel, force, b.Mass, b.MaxSpeed, dt)
	pos, vel = mv.ResolveTreeCollisions(pos, vel, b.Radius)
	pos, vel = mv.ReflectBounds(pos, vel, b.Radius)
	pos.Y = mv.terrain.SurfaceY(pos.X, pos.Z, mv.sink)

	m.Pos, m.Vel = pos, vel
}

// Halt stops the agent in place, keeping it on the surface.
func (mv *Mover) Halt(m *components.Motion) {
	m.Vel = r3.Vec{}
	m.Pos.Y = mv.terrain.SurfaceY(m.Pos.X, m.Pos.Z, mv.sink)
}
