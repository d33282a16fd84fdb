package telemetry

import "github.com/patrikandersson91/ecosystem-sub000/store"

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	Species store.Species
	BornAt  float64 // sim-seconds

	Meals    int
	Drinks   int
	Kills    int
	Matings  int
	Children int
}

// LifetimeTracker manages per-agent lifetime statistics, fed by store events.
type LifetimeTracker struct {
	stats map[store.EntityID]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[store.EntityID]*LifetimeStats),
	}
}

// Register starts tracking an agent.
func (lt *LifetimeTracker) Register(id store.EntityID, sp store.Species, bornAt float64) {
	lt.stats[id] = &LifetimeStats{Species: sp, BornAt: bornAt}
}

// Get returns the lifetime stats for an agent, or nil if not tracked.
func (lt *LifetimeTracker) Get(id store.EntityID) *LifetimeStats {
	return lt.stats[id]
}

// Remove stops tracking an agent and returns its stats.
func (lt *LifetimeTracker) Remove(id store.EntityID) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// Observe updates the tracker from a store event. For deaths it returns
// the finished record, otherwise nil.
func (lt *LifetimeTracker) Observe(e store.Event) *LifetimeStats {
	switch e.Kind {
	case store.EventBirth:
		lt.Register(e.EntityID, e.Species, e.Time)
		if s := lt.stats[e.OtherID]; s != nil {
			s.Children++
		}
	case store.EventDeath:
		return lt.Remove(e.EntityID)
	case store.EventAte:
		if s := lt.stats[e.EntityID]; s != nil {
			s.Meals++
		}
	case store.EventDrank:
		if s := lt.stats[e.EntityID]; s != nil {
			s.Drinks++
		}
	case store.EventCaught:
		if s := lt.stats[e.EntityID]; s != nil {
			s.Kills++
			s.Meals++
		}
	case store.EventMated:
		for _, id := range []store.EntityID{e.EntityID, e.OtherID} {
			if s := lt.stats[id]; s != nil {
				s.Matings++
			}
		}
	}
	return nil
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
