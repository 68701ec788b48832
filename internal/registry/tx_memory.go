package registry

import (
	"context"
	"sync"

	dErrors "proofvault/pkg/domain-errors"
)

// MemoryTx serializes all registry state behind one RWMutex. A single global
// lock, not shards: the hash index and the allocation counter are
// cross-entity, so any finer granularity would let invariant checks race.
type MemoryTx struct {
	mu     sync.RWMutex
	stores Stores
}

func NewMemoryTx(stores Stores) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	// Once the lock is held the operation runs to completion; cancellation is
	// only honored while waiting in line.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, t.stores)
}

func (t *MemoryTx) RunInReadTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(ctx, t.stores)
}
