package proofs

import (
	"context"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
)

// Store keeps proof metadata, the injective hash index, and the allocation
// counter. The counter only ever increases; deleting a proof never frees its
// id. Implementations rely on the surrounding registry transaction for
// serialization.
type Store interface {
	// NextID allocates the next proof id. Ids start at 1.
	NextID(ctx context.Context) (domain.ProofID, error)
	// IDByHash resolves an active hash, returning the sentinel id when the
	// hash is not indexed.
	IDByHash(ctx context.Context, hash domain.Hash) (domain.ProofID, error)
	// Get returns metadata for an active proof, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.ProofID) (Record, error)
	// Put stores metadata and indexes the record's hash.
	Put(ctx context.Context, record Record) error
	// Delete removes metadata and the hash index entry in one step.
	Delete(ctx context.Context, id domain.ProofID) error
}

// MemoryStore is the in-memory Store.
type MemoryStore struct {
	counter uint64
	byID    map[domain.ProofID]Record
	byHash  map[domain.Hash]domain.ProofID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[domain.ProofID]Record),
		byHash: make(map[domain.Hash]domain.ProofID),
	}
}

func (s *MemoryStore) NextID(_ context.Context) (domain.ProofID, error) {
	s.counter++
	return domain.ProofID(s.counter), nil
}

func (s *MemoryStore) IDByHash(_ context.Context, hash domain.Hash) (domain.ProofID, error) {
	return s.byHash[hash], nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.ProofID) (Record, error) {
	record, ok := s.byID[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) Put(_ context.Context, record Record) error {
	if _, exists := s.byID[record.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[record.ID] = record
	s.byHash[record.Hash] = record.ID
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.ProofID) error {
	record, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byHash, record.Hash)
	return nil
}
