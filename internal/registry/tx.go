// Package registry defines the transactional boundary shared by every
// registry operation. A mutation is one atomic unit: authorization check,
// uniqueness/existence checks, and state transition all happen against the
// same store views, and either all of it commits or none of it does.
package registry

import (
	"context"

	"proofvault/internal/confirmations"
	"proofvault/internal/ledger"
	"proofvault/internal/proofs"
	"proofvault/internal/roles"
)

// Stores bundles the component store views participating in one transaction.
type Stores struct {
	Roles         roles.Store
	Proofs        proofs.Store
	Ledger        ledger.Store
	Confirmations confirmations.Store
}

// Tx serializes registry state access. RunInTx is exclusive and backs every
// mutation; RunInReadTx is shared and backs queries, which must observe a
// consistent snapshot but may run concurrently with each other.
//
// Services validate before the first write, so with the in-memory
// implementation an error from fn means nothing was applied. The postgres
// implementation additionally rolls back on error.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	RunInReadTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
