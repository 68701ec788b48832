//go:build integration

package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proofvault/internal/proofs"
	"proofvault/internal/proofs/cache"
	"proofvault/pkg/domain"
	"proofvault/pkg/testutil/containers"
)

func TestCache(t *testing.T) {
	rd := containers.NewRedisContainer(t)
	ctx := t.Context()

	c := cache.New(rd.Client, time.Minute)

	hash, err := domain.ParseHash("0x0303030303030303030303030303030303030303030303030303030303030303")
	require.NoError(t, err)
	record := proofs.Record{
		ID:          domain.ProofID(5),
		Hash:        hash,
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		Description: "cached proof",
	}

	t.Run("miss before store", func(t *testing.T) {
		_, ok := c.IDByHash(ctx, hash)
		require.False(t, ok)
		_, ok = c.Proof(ctx, record.ID)
		require.False(t, ok)
	})

	t.Run("hit after store", func(t *testing.T) {
		c.StoreIDByHash(ctx, hash, record.ID)
		c.StoreProof(ctx, record)

		id, ok := c.IDByHash(ctx, hash)
		require.True(t, ok)
		require.Equal(t, record.ID, id)

		got, ok := c.Proof(ctx, record.ID)
		require.True(t, ok)
		require.Equal(t, record.ID, got.ID)
		require.Equal(t, record.Hash, got.Hash)
		require.Equal(t, record.Description, got.Description)
	})

	t.Run("sentinel id is never cached", func(t *testing.T) {
		var other domain.Hash
		other[0] = 9
		c.StoreIDByHash(ctx, other, domain.SentinelProofID)
		_, ok := c.IDByHash(ctx, other)
		require.False(t, ok)
	})

	t.Run("invalidate drops both keys", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, hash, record.ID))
		_, ok := c.IDByHash(ctx, hash)
		require.False(t, ok)
		_, ok = c.Proof(ctx, record.ID)
		require.False(t, ok)
	})
}
