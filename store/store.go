package store

import (
	"math/rand"
	"sync"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// Store owns the authoritative State. Dispatch is the only mutation path;
// actions are applied one at a time in the order they arrive.
type Store struct {
	mu      sync.Mutex
	state   *State
	reducer *Reducer

	subs []func(Event)

	// bounded ring of recent events
	log     []Event
	logNext int
	logFull bool
}

// New creates a store with an empty state.
func New(cfg *config.Config, rng *rand.Rand) *Store {
	size := cfg.Simulation.EventLogSize
	if size <= 0 {
		size = 1
	}
	return &Store{
		state:   NewState(),
		reducer: NewReducer(cfg, rng),
		log:     make([]Event, size),
	}
}

// State returns the current snapshot. The snapshot is never modified
// afterwards, so it may be read freely while further actions are dispatched.
func (s *Store) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every event produced by later dispatches.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Dispatch applies a to the current state and notifies subscribers of the
// resulting events. Subscribers run after the new state is visible and must
// not dispatch re-entrantly from inside the callback.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	next, events := s.reducer.Reduce(s.state, a)
	s.state = next
	for _, e := range events {
		s.log[s.logNext] = e
		s.logNext = (s.logNext + 1) % len(s.log)
		if s.logNext == 0 {
			s.logFull = true
		}
	}
	subs := s.subs
	s.mu.Unlock()

	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}

// Events returns the retained events, oldest first.
func (s *Store) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.logFull {
		return append([]Event(nil), s.log[:s.logNext]...)
	}
	out := make([]Event, 0, len(s.log))
	out = append(out, s.log[s.logNext:]...)
	return append(out, s.log[:s.logNext]...)
}
