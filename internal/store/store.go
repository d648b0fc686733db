package store

import "sync"

// State is the slice of application state the analytics layer observes.
type State struct {
	IsSignedIn bool `json:"is_signed_in"`
}

// Store holds the latest State for one client and notifies subscribers on
// every Set, whether or not the value changed.
type Store struct {
	mu     sync.RWMutex
	state  State
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(State)
}

// New returns a Store holding the zero State.
func New() *Store {
	return &Store{}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Set replaces the state and calls subscribers in registration order.
// Callbacks run outside the lock and may read State.
func (s *Store) Set(st State) {
	s.mu.Lock()
	s.state = st
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(st)
	}
}
