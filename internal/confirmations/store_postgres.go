package confirmations

import (
	"context"
	"database/sql"
	"fmt"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
	txcontext "proofvault/pkg/platform/tx"
)

// PostgresStore persists confirmer sets in the confirmations table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the confirmations table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS confirmations (
			id      BIGINT NOT NULL,
			account TEXT NOT NULL,
			PRIMARY KEY (id, account)
		)`)
	if err != nil {
		return fmt.Errorf("ensure confirmations schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, id domain.ProofID, confirmer domain.Account) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO confirmations (id, account) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		uint64(id), confirmer.String(),
	)
	if err != nil {
		return fmt.Errorf("add confirmation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add confirmation: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, id domain.ProofID, confirmer domain.Account) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM confirmations WHERE id = $1 AND account = $2)`,
		uint64(id), confirmer.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query confirmation: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Count(ctx context.Context, id domain.ProofID) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM confirmations WHERE id = $1`, uint64(id),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Drop(ctx context.Context, id domain.ProofID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM confirmations WHERE id = $1`, uint64(id),
	)
	if err != nil {
		return fmt.Errorf("drop confirmations: %w", err)
	}
	return nil
}
