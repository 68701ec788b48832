package ledger

import (
	"context"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
)

// Store holds ownership state: one owner per proof id, at most one approved
// delegate per id, per-owner operator sets, and a per-owner enumeration of
// owned ids. Enumeration order is stable between mutations but carries no
// meaning; removal swaps with the last element.
//
// Implementations carry no locking; the registry transaction serializes.
type Store interface {
	// OwnerOf returns the owner of id, or sentinel.ErrNotFound when unowned.
	OwnerOf(ctx context.Context, id domain.ProofID) (domain.Account, error)
	// SetOwner establishes first ownership; sentinel.ErrConflict when owned.
	SetOwner(ctx context.Context, id domain.ProofID, owner domain.Account) error
	// ChangeOwner reassigns an owned id.
	ChangeOwner(ctx context.Context, id domain.ProofID, owner domain.Account) error
	// RemoveOwner deletes the ownership record.
	RemoveOwner(ctx context.Context, id domain.ProofID) error

	// Approved returns the per-id delegate, ZeroAccount when unset.
	Approved(ctx context.Context, id domain.ProofID) (domain.Account, error)
	// SetApproved overwrites the per-id delegate; ZeroAccount clears it.
	SetApproved(ctx context.Context, id domain.ProofID, delegate domain.Account) error

	IsOperator(ctx context.Context, owner, operator domain.Account) (bool, error)
	SetOperator(ctx context.Context, owner, operator domain.Account, approved bool) error

	// AppendOwned adds id to owner's enumeration.
	AppendOwned(ctx context.Context, owner domain.Account, id domain.ProofID) error
	// RemoveOwned removes id from owner's enumeration, swap-with-last style.
	RemoveOwned(ctx context.Context, owner domain.Account, id domain.ProofID) error
	// OwnedByIndex returns the id at index, or sentinel.ErrOutOfRange.
	OwnedByIndex(ctx context.Context, owner domain.Account, index int) (domain.ProofID, error)
	OwnedCount(ctx context.Context, owner domain.Account) (int, error)
}

// MemoryStore is the in-memory Store.
type MemoryStore struct {
	owners    map[domain.ProofID]domain.Account
	approvals map[domain.ProofID]domain.Account
	operators map[domain.Account]map[domain.Account]struct{}
	owned     map[domain.Account][]domain.ProofID
	ownedIdx  map[domain.ProofID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners:    make(map[domain.ProofID]domain.Account),
		approvals: make(map[domain.ProofID]domain.Account),
		operators: make(map[domain.Account]map[domain.Account]struct{}),
		owned:     make(map[domain.Account][]domain.ProofID),
		ownedIdx:  make(map[domain.ProofID]int),
	}
}

func (s *MemoryStore) OwnerOf(_ context.Context, id domain.ProofID) (domain.Account, error) {
	owner, ok := s.owners[id]
	if !ok {
		return domain.ZeroAccount, sentinel.ErrNotFound
	}
	return owner, nil
}

func (s *MemoryStore) SetOwner(_ context.Context, id domain.ProofID, owner domain.Account) error {
	if _, exists := s.owners[id]; exists {
		return sentinel.ErrConflict
	}
	s.owners[id] = owner
	return nil
}

func (s *MemoryStore) ChangeOwner(_ context.Context, id domain.ProofID, owner domain.Account) error {
	if _, exists := s.owners[id]; !exists {
		return sentinel.ErrNotFound
	}
	s.owners[id] = owner
	return nil
}

func (s *MemoryStore) RemoveOwner(_ context.Context, id domain.ProofID) error {
	if _, exists := s.owners[id]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.owners, id)
	return nil
}

func (s *MemoryStore) Approved(_ context.Context, id domain.ProofID) (domain.Account, error) {
	return s.approvals[id], nil
}

func (s *MemoryStore) SetApproved(_ context.Context, id domain.ProofID, delegate domain.Account) error {
	if delegate.IsZero() {
		delete(s.approvals, id)
		return nil
	}
	s.approvals[id] = delegate
	return nil
}

func (s *MemoryStore) IsOperator(_ context.Context, owner, operator domain.Account) (bool, error) {
	_, ok := s.operators[owner][operator]
	return ok, nil
}

func (s *MemoryStore) SetOperator(_ context.Context, owner, operator domain.Account, approved bool) error {
	set, ok := s.operators[owner]
	if !ok {
		if !approved {
			return nil
		}
		set = make(map[domain.Account]struct{})
		s.operators[owner] = set
	}
	if approved {
		set[operator] = struct{}{}
	} else {
		delete(set, operator)
	}
	return nil
}

func (s *MemoryStore) AppendOwned(_ context.Context, owner domain.Account, id domain.ProofID) error {
	s.ownedIdx[id] = len(s.owned[owner])
	s.owned[owner] = append(s.owned[owner], id)
	return nil
}

func (s *MemoryStore) RemoveOwned(_ context.Context, owner domain.Account, id domain.ProofID) error {
	idx, ok := s.ownedIdx[id]
	list := s.owned[owner]
	if !ok || idx >= len(list) || list[idx] != id {
		return sentinel.ErrNotFound
	}
	last := len(list) - 1
	if idx != last {
		list[idx] = list[last]
		s.ownedIdx[list[idx]] = idx
	}
	s.owned[owner] = list[:last]
	delete(s.ownedIdx, id)
	return nil
}

func (s *MemoryStore) OwnedByIndex(_ context.Context, owner domain.Account, index int) (domain.ProofID, error) {
	list := s.owned[owner]
	if index < 0 || index >= len(list) {
		return domain.SentinelProofID, sentinel.ErrOutOfRange
	}
	return list[index], nil
}

func (s *MemoryStore) OwnedCount(_ context.Context, owner domain.Account) (int, error) {
	return len(s.owned[owner]), nil
}
