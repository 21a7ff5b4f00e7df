package memory

import (
	"context"
	"sync"

	audit "pcms/pkg/platform/audit"
)

// InMemoryStore keeps audit events in emission order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListAll returns every event in emission order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListByAction returns events whose action matches, in emission order.
func (s *InMemoryStore) ListByAction(_ context.Context, action audit.AuditEvent) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByCase returns events tied to caseID, in emission order.
func (s *InMemoryStore) ListByCase(_ context.Context, caseID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}
