package confirmations

import (
	"context"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
)

// Store keeps the per-proof confirmer sets. Membership only grows while a
// proof is active; deleting the proof drops the whole set.
type Store interface {
	// Add inserts confirmer into the set for id; sentinel.ErrConflict when
	// already present.
	Add(ctx context.Context, id domain.ProofID, confirmer domain.Account) error
	Has(ctx context.Context, id domain.ProofID, confirmer domain.Account) (bool, error)
	Count(ctx context.Context, id domain.ProofID) (int, error)
	// Drop discards the whole set for id (proof deletion).
	Drop(ctx context.Context, id domain.ProofID) error
}

// MemoryStore is the in-memory Store.
type MemoryStore struct {
	sets map[domain.ProofID]map[domain.Account]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[domain.ProofID]map[domain.Account]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, id domain.ProofID, confirmer domain.Account) error {
	set, ok := s.sets[id]
	if !ok {
		set = make(map[domain.Account]struct{})
		s.sets[id] = set
	}
	if _, exists := set[confirmer]; exists {
		return sentinel.ErrConflict
	}
	set[confirmer] = struct{}{}
	return nil
}

func (s *MemoryStore) Has(_ context.Context, id domain.ProofID, confirmer domain.Account) (bool, error) {
	_, ok := s.sets[id][confirmer]
	return ok, nil
}

func (s *MemoryStore) Count(_ context.Context, id domain.ProofID) (int, error) {
	return len(s.sets[id]), nil
}

func (s *MemoryStore) Drop(_ context.Context, id domain.ProofID) error {
	delete(s.sets, id)
	return nil
}
