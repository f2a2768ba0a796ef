package memory

import (
	"context"
	"sync"

	audit "dcx/pkg/platform/audit"
)

// DefaultCapacity bounds a store built without WithCapacity.
const DefaultCapacity = 1024

// InMemoryStore keeps the most recent audit events in process. Once full,
// each append evicts the oldest event.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	// next is the slot the following append writes once the buffer is full.
	next     int
	capacity int
}

type Option func(*InMemoryStore)

// WithCapacity sets how many events are retained. Non-positive values keep
// the default.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewInMemoryStore returns a store holding at most DefaultCapacity events
// unless WithCapacity is given.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) < s.capacity {
		s.events = append(s.events, event)
		return nil
	}
	s.events[s.next] = event
	s.next = (s.next + 1) % s.capacity
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.ordered() {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns the retained events, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordered(), nil
}

// ordered copies the ring oldest first. Callers hold mu.
func (s *InMemoryStore) ordered() []audit.Event {
	out := make([]audit.Event, 0, len(s.events))
	out = append(out, s.events[s.next:]...)
	return append(out, s.events[:s.next]...)
}
