package proofs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proofvault/pkg/domain"
	"proofvault/pkg/platform/sentinel"
	txcontext "proofvault/pkg/platform/tx"
)

// PostgresStore persists proof metadata. The unique index on hash backs the
// injectivity invariant even if a logic bug ever slipped a duplicate past the
// service check.
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

// EnsureSchema creates the proofs tables when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS proofs (
			id          BIGINT PRIMARY KEY,
			hash        TEXT NOT NULL UNIQUE,
			ts          TIMESTAMPTZ NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS proof_counter (
			singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			value     BIGINT NOT NULL
		)`,
		`INSERT INTO proof_counter (singleton, value) VALUES (TRUE, 0) ON CONFLICT DO NOTHING`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure proofs schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) NextID(ctx context.Context) (domain.ProofID, error) {
	var value uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`UPDATE proof_counter SET value = value + 1 RETURNING value`,
	).Scan(&value)
	if err != nil {
		return domain.SentinelProofID, fmt.Errorf("allocate proof id: %w", err)
	}
	return domain.ProofID(value), nil
}

func (s *PostgresStore) IDByHash(ctx context.Context, hash domain.Hash) (domain.ProofID, error) {
	var id uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id FROM proofs WHERE hash = $1`, hash.String(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SentinelProofID, nil
	}
	if err != nil {
		return domain.SentinelProofID, fmt.Errorf("resolve hash: %w", err)
	}
	return domain.ProofID(id), nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ProofID) (Record, error) {
	var (
		record  Record
		rawHash string
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, hash, ts, description FROM proofs WHERE id = $1`, uint64(id),
	).Scan(&record.ID, &rawHash, &record.Timestamp, &record.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get proof: %w", err)
	}
	hash, err := domain.ParseHash(rawHash)
	if err != nil {
		return Record{}, fmt.Errorf("corrupt stored hash for proof %s: %w", id, err)
	}
	record.Hash = hash
	return record, nil
}

func (s *PostgresStore) Put(ctx context.Context, record Record) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO proofs (id, hash, ts, description) VALUES ($1, $2, $3, $4)`,
		uint64(record.ID), record.Hash.String(), record.Timestamp, record.Description,
	)
	if err != nil {
		return fmt.Errorf("put proof: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.ProofID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM proofs WHERE id = $1`, uint64(id),
	)
	if err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
