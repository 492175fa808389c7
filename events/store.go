package events

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/freegle/iznik-api/api"
)

// Store keeps fetched events by ID along with the last paging cursor.
type Store struct {
	mu      sync.RWMutex
	byID    map[int64]Event
	context api.Payload
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[int64]Event), now: time.Now}
}

// Add stores ev, resolving its next occurrence.
func (s *Store) Add(ev Event) {
	s.AddAll([]Event{ev})
}

// AddAll stores every event, replacing any with the same ID.
func (s *Store) AddAll(evs []Event) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range evs {
		ev.Earliest = Earliest(ev.Dates, now)
		s.byID[ev.ID] = ev
	}
}

// SetList replaces the contents with evs.
func (s *Store) SetList(evs []Event) {
	s.mu.Lock()
	s.byID = make(map[int64]Event, len(evs))
	s.mu.Unlock()
	s.AddAll(evs)
}

// Get returns the event with id.
func (s *Store) Get(id int64) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byID[id]
	return ev, ok
}

// List returns the events in ID order.
func (s *Store) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.byID))
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Sorted returns the events ordered by next occurrence.
func (s *Store) Sorted() []Event {
	out := s.List()
	SortByEarliest(out)
	return out
}

// Apply stores a fetched page and remembers its cursor.
func (s *Store) Apply(p *Page) {
	s.AddAll(p.Events)
	s.mu.Lock()
	s.context = p.Context
	s.mu.Unlock()
}

// Context returns the cursor for the next page, or nil when the last page was
// the final one.
func (s *Store) Context() api.Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&Page{Context: s.context}).Next()
}

// Clear forgets every event and the cursor.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[int64]Event)
	s.context = nil
}
