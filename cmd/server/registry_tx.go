package main

import (
	"context"
	"database/sql"
	"time"

	"proofvault/internal/confirmations"
	"proofvault/internal/ledger"
	"proofvault/internal/proofs"
	"proofvault/internal/registry"
	"proofvault/internal/roles"
	dErrors "proofvault/pkg/domain-errors"
	txcontext "proofvault/pkg/platform/tx"
)

const defaultRegistryTxTimeout = 5 * time.Second

// registryPostgresTx runs each registry operation inside one database
// transaction. The stores find the transaction through the context and fall
// back to the pool outside one.
type registryPostgresTx struct {
	db      *sql.DB
	stores  registry.Stores
	timeout time.Duration
}

func newRegistryPostgresTx(db *sql.DB) *registryPostgresTx {
	return &registryPostgresTx{
		db: db,
		stores: registry.Stores{
			Roles:         roles.NewPostgresStore(db),
			Proofs:        proofs.NewPostgresStore(db),
			Ledger:        ledger.NewPostgresStore(db),
			Confirmations: confirmations.NewPostgresStore(db),
		},
	}
}

func (t *registryPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores registry.Stores) error) error {
	return t.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

func (t *registryPostgresTx) RunInReadTx(ctx context.Context, fn func(ctx context.Context, stores registry.Stores) error) error {
	return t.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: true}, fn)
}

func (t *registryPostgresTx) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, stores registry.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistryTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}
	return tx.Commit()
}
