package core

import (
	"sync"

	"github.com/google/uuid"
)

// Hub fans cache-version changes out to streaming subscribers. Subscribers
// poll rather than block: each connection's loop calls Poll on its own
// schedule and the hub only flips a flag on NotifyAll, so a slow subscriber
// can never back-pressure the ingestion path.
type Hub struct {
	cache *Cache

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscriber
}

// Subscriber is one streaming connection's view of the version counter. Its
// lifetime is exactly the connection's; callers must Close it on every exit
// path.
type Subscriber struct {
	id  uuid.UUID
	hub *Hub

	// guarded by hub.mu
	lastSeen int64
	force    bool
}

// NewHub wires a hub to the cache.
func NewHub(cache *Cache) *Hub {
	return &Hub{cache: cache, subs: make(map[uuid.UUID]*Subscriber)}
}

// Subscribe registers a new subscriber positioned at the current version, so
// its first event fires only on the next change (or a forced notify).
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{id: uuid.New(), hub: h, lastSeen: h.cache.Version()}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	return s
}

// NotifyAll flags every live subscriber to emit on its next poll, regardless
// of version comparison. Called once per accepted snapshot.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.force = true
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Poll reports whether the subscriber should emit an event, and the version
// to carry. It advances lastSeen, so a version observed once is never
// re-emitted and the versions a subscriber sees are non-decreasing.
func (s *Subscriber) Poll() (int64, bool) {
	version := s.hub.cache.Version()

	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.force || version != s.lastSeen {
		s.force = false
		s.lastSeen = version
		return version, true
	}
	return version, false
}

// Close removes the subscriber from the hub. Safe to call more than once.
func (s *Subscriber) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s.id)
	s.hub.mu.Unlock()
}
