package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"proofvault/internal/audit"
	"proofvault/internal/confirmations"
	"proofvault/internal/ledger"
	"proofvault/internal/platform/metrics"
	"proofvault/internal/proofs"
	"proofvault/internal/registry"
	"proofvault/internal/registry/service"
	"proofvault/internal/roles"
	"proofvault/pkg/domain"
	"proofvault/pkg/testutil"
)

// TestProofLifecycleScenario walks one proof from registration through
// confirmation, transfer, and deletion.
func TestProofLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	tx := registry.NewMemoryTx(registry.Stores{
		Roles:         roles.NewMemoryStore(),
		Proofs:        proofs.NewMemoryStore(),
		Ledger:        ledger.NewMemoryStore(),
		Confirmations: confirmations.NewMemoryStore(),
	})
	svc := service.New(tx, nil, audit.NewMemoryStore(), audit.NewChannelPublisher(64, logger), nil,
		metrics.New(prometheus.NewRegistry()), logger)
	require.NoError(t, svc.Bootstrap(ctx, "admin"))

	var (
		hash domain.Hash
		id   domain.ProofID
	)
	hash[0] = 0xAB

	testutil.Given(t, "a whitelisted issuer and a whitelisted notary", func(t *testing.T) {
		require.NoError(t, svc.GrantRole(ctx, "admin", domain.RoleProofWhitelisted, "issuer"))
		require.NoError(t, svc.GrantRole(ctx, "admin", domain.RoleConfirmWhitelisted, "notary"))
	})

	testutil.When(t, "the issuer registers a proof for a holder", func(t *testing.T) {
		var err error
		id, err = svc.AddProof(ctx, "issuer", "holder", hash, "bill of lading")
		require.NoError(t, err)
		require.Equal(t, domain.ProofID(1), id)
	})

	testutil.Then(t, "the holder owns it and the notary can confirm it", func(t *testing.T) {
		owner, err := svc.OwnerOf(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.Account("holder"), owner)

		require.NoError(t, svc.AddConfirmation(ctx, "notary", id))
		count, err := svc.GetProofConfirmationCount(ctx, id)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	testutil.When(t, "the holder transfers and then deletes the proof", func(t *testing.T) {
		require.NoError(t, svc.Transfer(ctx, "holder", id, "holder", "buyer", true))
		require.NoError(t, svc.DeleteProof(ctx, "buyer", id))
	})

	testutil.Then(t, "the hash is free again but the id is spent forever", func(t *testing.T) {
		freed, err := svc.GetProofIDByHash(ctx, hash)
		require.NoError(t, err)
		require.True(t, freed.IsSentinel())

		next, err := svc.AddProof(ctx, "issuer", "issuer", hash, "re-registration")
		require.NoError(t, err)
		require.Equal(t, domain.ProofID(2), next)
	})
}
