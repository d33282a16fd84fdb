package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// Steering forces live in the XZ plane; every function here ignores and
// returns zero vertical components.

// Seek returns the force steering toward target at full speed. An agent
// standing on its target keeps its current heading.
func Seek(pos, vel, target r3.Vec, b components.Body) r3.Vec {
	dir := unitOr(flat(r3.Sub(target, pos)), flat(vel))
	desired := r3.Scale(b.MaxSpeed, dir)
	return limit(r3.Sub(desired, flat(vel)), b.MaxForce)
}

// Flee returns the force steering away from threat. It is zero at or beyond
// panicRadius; inside it both the desired speed and the force limit scale by
// 1+urgency, where urgency grows linearly to 1 at the threat.
func Flee(pos, vel, threat r3.Vec, panicRadius float64, b components.Body) r3.Vec {
	away := flat(r3.Sub(pos, threat))
	dist := r3.Norm(away)
	if dist >= panicRadius {
		return r3.Vec{}
	}
	urgency := 1 - dist/panicRadius
	dir := unitOr(away, flat(vel))
	desired := r3.Scale(b.MaxSpeed*(1+urgency), dir)
	return limit(r3.Sub(desired, flat(vel)), b.MaxForce*(1+urgency))
}

// Wander random-walks *angle by up to ±jitter and seeks a point on a circle
// projected ahead of the agent. Nearly stationary agents project along the
// default heading.
func Wander(pos, vel r3.Vec, angle *float64, rng *rand.Rand, sc config.SteeringConfig, b components.Body) r3.Vec {
	*angle = normalizeAngle(*angle + (rng.Float64()*2-1)*sc.WanderJitter)

	heading := defaultHeading
	if v := flat(vel); r3.Norm(v) > sc.StationarySpeed {
		heading = r3.Unit(v)
	}
	center := r3.Add(flat(pos), r3.Scale(sc.WanderDistance, heading))
	target := r3.Add(center, r3.Vec{
		X: sc.WanderRadius * math.Cos(*angle),
		Z: sc.WanderRadius * math.Sin(*angle),
	})
	return Seek(flat(pos), vel, target, b)
}

// Integrate advances pos and vel by one explicit Euler step. Acceleration is
// force/mass; the vertical velocity is zeroed and speed is capped before
// the position update.
func Integrate(pos, vel, force r3.Vec, mass, maxSpeed, dt float64) (r3.Vec, r3.Vec) {
	if mass <= 0 {
		mass = 1
	}
	acc := r3.Scale(1/mass, force)
	vel = r3.Add(vel, r3.Scale(dt, acc))
	vel.Y = 0
	vel = limit(vel, maxSpeed)
	pos = r3.Add(pos, r3.Scale(dt, vel))
	return pos, vel
}
