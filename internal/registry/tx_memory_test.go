package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"proofvault/internal/confirmations"
	"proofvault/internal/ledger"
	"proofvault/internal/proofs"
	"proofvault/internal/roles"
	"proofvault/pkg/domain"
	dErrors "proofvault/pkg/domain-errors"
)

func newTestTx() *MemoryTx {
	return NewMemoryTx(Stores{
		Roles:         roles.NewMemoryStore(),
		Proofs:        proofs.NewMemoryStore(),
		Ledger:        ledger.NewMemoryStore(),
		Confirmations: confirmations.NewMemoryStore(),
	})
}

func TestMemoryTxCancelledContext(t *testing.T) {
	tx := newTestTx()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tx.RunInTx(ctx, func(context.Context, Stores) error { return nil })
	require.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

	err = tx.RunInReadTx(ctx, func(context.Context, Stores) error { return nil })
	require.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestMemoryTxSerializesMutations(t *testing.T) {
	tx := newTestTx()
	ctx := context.Background()

	// The counter has no lock of its own; unique ids under concurrency prove
	// the transaction boundary is the one doing the serializing.
	const n = 64
	seen := make(chan domain.ProofID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tx.RunInTx(ctx, func(ctx context.Context, s Stores) error {
				id, err := s.Proofs.NextID(ctx)
				if err != nil {
					return err
				}
				seen <- id
				return nil
			})
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[domain.ProofID]bool, n)
	for id := range seen {
		require.False(t, unique[id], "id %s issued twice", id)
		unique[id] = true
	}
	require.Len(t, unique, n)
}

func TestMemoryTxReadSeesCommittedWrites(t *testing.T) {
	tx := newTestTx()
	ctx := context.Background()

	require.NoError(t, tx.RunInTx(ctx, func(ctx context.Context, s Stores) error {
		_, err := s.Roles.Grant(ctx, domain.RoleAdmin, "root")
		return err
	}))

	var has bool
	require.NoError(t, tx.RunInReadTx(ctx, func(ctx context.Context, s Stores) error {
		var err error
		has, err = s.Roles.Has(ctx, domain.RoleAdmin, "root")
		return err
	}))
	require.True(t, has)
}
