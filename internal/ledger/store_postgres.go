package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
	txcontext "proofvault/pkg/platform/tx"
)

// PostgresStore persists ownership, approvals, operators, and the per-owner
// enumeration. Enumeration rows are dense per owner: indexes run 0..count-1
// and removal moves the last row into the gap.
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

// EnsureSchema creates the ownership tables when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ownership (
			id       BIGINT PRIMARY KEY,
			owner    TEXT NOT NULL,
			approved TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS operators (
			owner    TEXT NOT NULL,
			operator TEXT NOT NULL,
			PRIMARY KEY (owner, operator)
		)`,
		`CREATE TABLE IF NOT EXISTS enumeration (
			owner TEXT NOT NULL,
			idx   BIGINT NOT NULL,
			id    BIGINT NOT NULL UNIQUE,
			PRIMARY KEY (owner, idx)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) OwnerOf(ctx context.Context, id domain.ProofID) (domain.Account, error) {
	var owner string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT owner FROM ownership WHERE id = $1`, uint64(id),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAccount, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.ZeroAccount, fmt.Errorf("query owner: %w", err)
	}
	return domain.Account(owner), nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, id domain.ProofID, owner domain.Account) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO ownership (id, owner) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		uint64(id), owner.String(),
	)
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ChangeOwner(ctx context.Context, id domain.ProofID, owner domain.Account) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE ownership SET owner = $2 WHERE id = $1`, uint64(id), owner.String(),
	)
	if err != nil {
		return fmt.Errorf("change owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("change owner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveOwner(ctx context.Context, id domain.ProofID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM ownership WHERE id = $1`, uint64(id),
	)
	if err != nil {
		return fmt.Errorf("remove owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove owner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Approved(ctx context.Context, id domain.ProofID) (domain.Account, error) {
	var approved string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT approved FROM ownership WHERE id = $1`, uint64(id),
	).Scan(&approved)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAccount, nil
	}
	if err != nil {
		return domain.ZeroAccount, fmt.Errorf("query approval: %w", err)
	}
	return domain.Account(approved), nil
}

func (s *PostgresStore) SetApproved(ctx context.Context, id domain.ProofID, delegate domain.Account) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE ownership SET approved = $2 WHERE id = $1`, uint64(id), delegate.String(),
	)
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsOperator(ctx context.Context, owner, operator domain.Account) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM operators WHERE owner = $1 AND operator = $2)`,
		owner.String(), operator.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query operator: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetOperator(ctx context.Context, owner, operator domain.Account, approved bool) error {
	var err error
	if approved {
		_, err = s.execer(ctx).ExecContext(ctx,
			`INSERT INTO operators (owner, operator) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			owner.String(), operator.String(),
		)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM operators WHERE owner = $1 AND operator = $2`,
			owner.String(), operator.String(),
		)
	}
	if err != nil {
		return fmt.Errorf("set operator: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendOwned(ctx context.Context, owner domain.Account, id domain.ProofID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO enumeration (owner, idx, id)
		 SELECT $1, COALESCE(MAX(idx) + 1, 0), $2 FROM enumeration WHERE owner = $1`,
		owner.String(), uint64(id),
	)
	if err != nil {
		return fmt.Errorf("append owned: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveOwned(ctx context.Context, owner domain.Account, id domain.ProofID) error {
	ex := s.execer(ctx)

	var idx uint64
	err := ex.QueryRowContext(ctx,
		`SELECT idx FROM enumeration WHERE owner = $1 AND id = $2`,
		owner.String(), uint64(id),
	).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove owned: %w", err)
	}

	var lastIdx uint64
	var lastID uint64
	err = ex.QueryRowContext(ctx,
		`SELECT idx, id FROM enumeration WHERE owner = $1 ORDER BY idx DESC LIMIT 1`,
		owner.String(),
	).Scan(&lastIdx, &lastID)
	if err != nil {
		return fmt.Errorf("remove owned: %w", err)
	}

	if _, err := ex.ExecContext(ctx,
		`DELETE FROM enumeration WHERE owner = $1 AND idx = $2`,
		owner.String(), lastIdx,
	); err != nil {
		return fmt.Errorf("remove owned: %w", err)
	}
	if lastIdx != idx {
		// Move the former last id into the freed slot.
		if _, err := ex.ExecContext(ctx,
			`UPDATE enumeration SET id = $3 WHERE owner = $1 AND idx = $2`,
			owner.String(), idx, lastID,
		); err != nil {
			return fmt.Errorf("remove owned: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) OwnedByIndex(ctx context.Context, owner domain.Account, index int) (domain.ProofID, error) {
	if index < 0 {
		return domain.SentinelProofID, sentinel.ErrOutOfRange
	}
	var id uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id FROM enumeration WHERE owner = $1 AND idx = $2`,
		owner.String(), uint64(index),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SentinelProofID, sentinel.ErrOutOfRange
	}
	if err != nil {
		return domain.SentinelProofID, fmt.Errorf("owned by index: %w", err)
	}
	return domain.ProofID(id), nil
}

func (s *PostgresStore) OwnedCount(ctx context.Context, owner domain.Account) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enumeration WHERE owner = $1`, owner.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("owned count: %w", err)
	}
	return count, nil
}
