package audit

import (
	"context"
	"sync"

	"proofvault/pkg/domain"
)

// Sink receives committed events. Kafka and stores both implement it.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink used for audit trail reconstruction.
type Store interface {
	Sink
	ListByProof(ctx context.Context, id domain.ProofID) ([]Event, error)
}

// MemoryStore keeps events in order of arrival. Unlike the registry stores it
// carries its own lock so trail reads never contend with the registry's
// transaction boundary.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByProof(_ context.Context, id domain.ProofID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.ProofID == id {
			out = append(out, event)
		}
	}
	return out, nil
}
