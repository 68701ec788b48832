package roles

import (
	"context"

	"proofvault/pkg/domain"
)

// Store holds role membership sets. Grant and Revoke report whether
// membership actually changed so the service only emits notifications for
// effective changes (both are idempotent).
//
// Implementations carry no locking of their own; every call happens inside a
// registry transaction, which is the serialization point.
type Store interface {
	Has(ctx context.Context, role domain.Role, account domain.Account) (bool, error)
	Grant(ctx context.Context, role domain.Role, account domain.Account) (bool, error)
	Revoke(ctx context.Context, role domain.Role, account domain.Account) (bool, error)
}

// MemoryStore keeps membership in per-role sets.
type MemoryStore struct {
	members map[domain.Role]map[domain.Account]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{members: make(map[domain.Role]map[domain.Account]struct{})}
}

func (s *MemoryStore) Has(_ context.Context, role domain.Role, account domain.Account) (bool, error) {
	_, ok := s.members[role][account]
	return ok, nil
}

func (s *MemoryStore) Grant(_ context.Context, role domain.Role, account domain.Account) (bool, error) {
	set, ok := s.members[role]
	if !ok {
		set = make(map[domain.Account]struct{})
		s.members[role] = set
	}
	if _, exists := set[account]; exists {
		return false, nil
	}
	set[account] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Revoke(_ context.Context, role domain.Role, account domain.Account) (bool, error) {
	set, ok := s.members[role]
	if !ok {
		return false, nil
	}
	if _, exists := set[account]; !exists {
		return false, nil
	}
	delete(set, account)
	return true, nil
}
