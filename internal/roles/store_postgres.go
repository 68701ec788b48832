package roles

import (
	"context"
	"database/sql"
	"fmt"

	"proofvault/pkg/domain"
	txcontext "proofvault/pkg/platform/tx"
)

// PostgresStore persists role membership in the roles table.
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

// EnsureSchema creates the roles table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS roles (
			role    TEXT NOT NULL,
			account TEXT NOT NULL,
			PRIMARY KEY (role, account)
		)`)
	if err != nil {
		return fmt.Errorf("ensure roles schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, role domain.Role, account domain.Account) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE role = $1 AND account = $2)`,
		role.String(), account.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query role membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Grant(ctx context.Context, role domain.Role, account domain.Account) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO roles (role, account) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		role.String(), account.String(),
	)
	if err != nil {
		return false, fmt.Errorf("grant role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant role: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, role domain.Role, account domain.Account) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM roles WHERE role = $1 AND account = $2`,
		role.String(), account.String(),
	)
	if err != nil {
		return false, fmt.Errorf("revoke role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke role: %w", err)
	}
	return n > 0, nil
}
