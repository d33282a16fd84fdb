package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/patrikandersson91/ecosystem-sub000/components"
	"github.com/patrikandersson91/ecosystem-sub000/config"
	"github.com/patrikandersson91/ecosystem-sub000/store"
)

func testBody(sc config.SpeciesConfig) components.Body {
	return components.BodyFromSpecies(&sc, true)
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestSeek(t *testing.T) {
	body := components.Body{MaxSpeed: 6, MaxForce: 12, Mass: 1}

	tests := []struct {
		name    string
		pos     r3.Vec
		vel     r3.Vec
		target  r3.Vec
		wantDir r3.Vec
	}{
		{"from rest", r3.Vec{}, r3.Vec{}, r3.Vec{X: 10}, r3.Vec{X: 1}},
		{"ignores height", r3.Vec{Y: 5}, r3.Vec{}, r3.Vec{Z: -4, Y: -3}, r3.Vec{Z: -1}},
		{"atop target keeps heading", r3.Vec{X: 2}, r3.Vec{Z: 0.5}, r3.Vec{X: 2}, r3.Vec{Z: 1}},
		{"atop target at rest", r3.Vec{}, r3.Vec{}, r3.Vec{}, defaultHeading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Seek(tt.pos, tt.vel, tt.target, body)
			if !finite(f) {
				t.Fatalf("force = %v", f)
			}
			if f.Y != 0 {
				t.Errorf("vertical force %v", f.Y)
			}
			if r3.Norm(f) > body.MaxForce+1e-9 {
				t.Errorf("force %v exceeds max %v", r3.Norm(f), body.MaxForce)
			}
			if c := r3.Dot(r3.Unit(f), tt.wantDir); c < 0.999 {
				t.Errorf("force direction %v, want %v", r3.Unit(f), tt.wantDir)
			}
		})
	}
}

func TestFleeUrgency(t *testing.T) {
	body := components.Body{MaxSpeed: 6, MaxForce: 4, Mass: 1}
	threat := r3.Vec{}

	if f := Flee(r3.Vec{X: 15}, r3.Vec{}, threat, 14, body); r3.Norm(f) != 0 {
		t.Errorf("force outside panic radius = %v", f)
	}
	if f := Flee(r3.Vec{X: 14}, r3.Vec{}, threat, 14, body); r3.Norm(f) != 0 {
		t.Errorf("force at panic radius = %v", f)
	}

	prev := 0.0
	for _, d := range []float64{12, 8, 4, 1} {
		f := Flee(r3.Vec{X: d}, r3.Vec{}, threat, 14, body)
		if f.X <= 0 || math.Abs(f.Z) > 1e-12 {
			t.Errorf("flee at %v = %v, want +X", d, f)
		}
		mag := r3.Norm(f)
		if mag <= prev {
			t.Errorf("flee magnitude %v at %v not above %v", mag, d, prev)
		}
		if limit := body.MaxForce * (2 - d/14); mag > limit+1e-9 {
			t.Errorf("flee magnitude %v exceeds scaled limit %v", mag, limit)
		}
		prev = mag
	}

	if f := Flee(threat, r3.Vec{}, threat, 14, body); !finite(f) || r3.Norm(f) == 0 {
		t.Errorf("flee on top of threat = %v", f)
	}
}

func TestWander(t *testing.T) {
	cfg := config.Default()
	body := testBody(cfg.Rabbit)
	rng := rand.New(rand.NewSource(3))

	angle := 0.5
	for i := 0; i < 100; i++ {
		before := angle
		f := Wander(r3.Vec{X: 1, Z: 2}, r3.Vec{}, &angle, rng, cfg.Steering, body)
		if !finite(f) || f.Y != 0 {
			t.Fatalf("wander force = %v", f)
		}
		if d := math.Abs(normalizeAngle(angle - before)); d > cfg.Steering.WanderJitter+1e-9 {
			t.Fatalf("angle jumped by %v", d)
		}
		if angle < -math.Pi-1e-9 || angle > math.Pi+1e-9 {
			t.Fatalf("angle %v not normalized", angle)
		}
	}
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		name      string
		vel       r3.Vec
		force     r3.Vec
		mass      float64
		maxSpeed  float64
		dt        float64
		wantVel   r3.Vec
		wantMoved float64
	}{
		{"accelerates", r3.Vec{}, r3.Vec{X: 10}, 2, 10, 0.1, r3.Vec{X: 0.5}, 0.05},
		{"clamps speed", r3.Vec{X: 5}, r3.Vec{X: 100}, 1, 6, 0.1, r3.Vec{X: 6}, 0.6},
		{"zeroes vertical", r3.Vec{Y: 3}, r3.Vec{Y: 50, Z: 10}, 1, 10, 0.1, r3.Vec{Z: 1}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := Integrate(r3.Vec{}, tt.vel, tt.force, tt.mass, tt.maxSpeed, tt.dt)
			if r3.Norm(r3.Sub(vel, tt.wantVel)) > 1e-9 {
				t.Errorf("vel = %v, want %v", vel, tt.wantVel)
			}
			if math.Abs(r3.Norm(pos)-tt.wantMoved) > 1e-9 {
				t.Errorf("moved %v, want %v", r3.Norm(pos), tt.wantMoved)
			}
		})
	}
}

func TestTickNeeds(t *testing.T) {
	tests := []struct {
		name      string
		hunger    float64
		thirst    float64
		wantDead  bool
		wantCause store.DeathCause
	}{
		{"healthy", 0.5, 0.5, false, store.CauseNone},
		{"starves", 0.001, 0.5, true, store.CauseStarvation},
		{"dehydrates", 0.5, 0.001, true, store.CauseDehydration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []store.Action
			n := &components.Needs{Hunger: tt.hunger, Thirst: tt.thirst, SyncTimer: 10}
			res := TickNeeds(n, 7, 0.1, 0.1, 1, 0.1, func(a store.Action) { got = append(got, a) })

			if res.Dead != tt.wantDead {
				t.Fatalf("dead = %v, want %v", res.Dead, tt.wantDead)
			}
			if res.Hunger < 0 || res.Thirst < 0 {
				t.Errorf("needs below zero: %+v", res)
			}
			if !tt.wantDead {
				if len(got) != 0 {
					t.Errorf("dispatched %v before sync interval", got)
				}
				return
			}
			if len(got) != 1 || got[0] != (store.Kill{ID: 7, Cause: tt.wantCause}) {
				t.Errorf("dispatched %v, want kill by %v", got, tt.wantCause)
			}
		})
	}
}

func TestTickNeedsSyncInterval(t *testing.T) {
	var syncs int
	n := &components.Needs{Hunger: 1, Thirst: 1, SyncTimer: 0.5}
	for i := 0; i < 30; i++ {
		TickNeeds(n, 1, 0.01, 0.01, 1, 0.1, func(a store.Action) {
			if _, ok := a.(store.UpdateNeeds); ok {
				syncs++
			}
		})
	}
	// first sync near 0.5s, then one per second
	if syncs != 3 {
		t.Errorf("syncs over 3s = %d, want 3", syncs)
	}
}

func TestAdoptNeeds(t *testing.T) {
	n := &components.Needs{Hunger: 0.2, Thirst: 0.3, Rev: 1}

	AdoptNeeds(n, store.Entity{Hunger: 0.9, Thirst: 0.9, NeedsRev: 1})
	if n.Hunger != 0.2 {
		t.Error("adopted values from an unchanged revision")
	}

	AdoptNeeds(n, store.Entity{Hunger: 1, Thirst: 0.3, NeedsRev: 2})
	if n.Hunger != 1 || n.Rev != 2 {
		t.Errorf("needs after adoption = %+v", n)
	}
}
