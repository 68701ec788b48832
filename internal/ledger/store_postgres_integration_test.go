//go:build integration

package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"proofvault/internal/ledger"
	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
	"proofvault/pkg/testutil/containers"
)

func TestPostgresStoreEnumeration(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := t.Context()

	store := ledger.NewPostgresStore(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	owner := domain.Account("alice")
	ids := []domain.ProofID{1, 2, 3}
	for _, id := range ids {
		require.NoError(t, store.SetOwner(ctx, id, owner))
		require.NoError(t, store.AppendOwned(ctx, owner, id))
	}

	t.Run("swap with last keeps the list gapless", func(t *testing.T) {
		require.NoError(t, store.RemoveOwned(ctx, owner, 1))

		count, err := store.OwnedCount(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		seen := map[domain.ProofID]bool{}
		for i := 0; i < count; i++ {
			id, err := store.OwnedByIndex(ctx, owner, i)
			require.NoError(t, err)
			seen[id] = true
		}
		require.True(t, seen[2])
		require.True(t, seen[3])

		_, err = store.OwnedByIndex(ctx, owner, count)
		require.ErrorIs(t, err, sentinel.ErrOutOfRange)
	})

	t.Run("removing the last element", func(t *testing.T) {
		require.NoError(t, store.RemoveOwned(ctx, owner, 3))
		require.NoError(t, store.RemoveOwned(ctx, owner, 2))

		count, err := store.OwnedCount(ctx, owner)
		require.NoError(t, err)
		require.Zero(t, count)
	})
}

func TestPostgresStoreApprovals(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := t.Context()

	store := ledger.NewPostgresStore(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	owner := domain.Account("alice")
	id := domain.ProofID(7)
	require.NoError(t, store.SetOwner(ctx, id, owner))

	require.NoError(t, store.SetApproved(ctx, id, domain.Account("bob")))
	approved, err := store.Approved(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.Account("bob"), approved)

	require.NoError(t, store.SetApproved(ctx, id, domain.ZeroAccount))
	approved, err = store.Approved(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.ZeroAccount, approved)

	require.NoError(t, store.SetOperator(ctx, owner, domain.Account("carol"), true))
	isOp, err := store.IsOperator(ctx, owner, domain.Account("carol"))
	require.NoError(t, err)
	require.True(t, isOp)

	require.NoError(t, store.SetOperator(ctx, owner, domain.Account("carol"), false))
	isOp, err = store.IsOperator(ctx, owner, domain.Account("carol"))
	require.NoError(t, err)
	require.False(t, isOp)
}
