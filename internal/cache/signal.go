package cache

import "sync"

// Event tells subscribers that a user's collection is stale.
type Event struct {
	UserID     string     `json:"user_id"`
	Collection Collection `json:"collection"`
	// Origin is the instance that published the event.
	Origin string `json:"origin"`
}

// Signal is the process-wide stale-collection observable.
// Subscribers are called synchronously, outside the signal's lock.
type Signal struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Collection]map[int]func(Event)
}

// NewSignal creates an empty signal.
func NewSignal() *Signal {
	return &Signal{subs: make(map[Collection]map[int]func(Event))}
}

// Subscribe registers fn for events on c. The returned func unsubscribes.
func (s *Signal) Subscribe(c Collection, fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[c] == nil {
		s.subs[c] = make(map[int]func(Event))
	}
	s.subs[c][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[c], id)
		})
	}
}

// Publish delivers e to the subscribers of e.Collection.
func (s *Signal) Publish(e Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subs[e.Collection]))
	for _, fn := range s.subs[e.Collection] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
