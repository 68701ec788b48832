package audit

import (
	"context"
	"database/sql"
	"fmt"

	"proofvault/pkg/domain"
	txcontext "proofvault/pkg/platform/tx"
)

// PostgresStore persists the event trail. Append joins the registry
// transaction carried in the context, making the audit row an outbox entry
// that commits or rolls back with the mutation it describes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the audit_events table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			ts          TIMESTAMPTZ NOT NULL,
			proof_id    BIGINT NOT NULL,
			hash        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			owner       TEXT NOT NULL DEFAULT '',
			from_acct   TEXT NOT NULL DEFAULT '',
			to_acct     TEXT NOT NULL DEFAULT '',
			confirmer   TEXT NOT NULL DEFAULT '',
			role        TEXT NOT NULL DEFAULT '',
			subject     TEXT NOT NULL DEFAULT '',
			actor       TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events
			(id, kind, ts, proof_id, hash, description, owner, from_acct, to_acct, confirmer, role, subject, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		event.ID, string(event.Kind), event.Timestamp, uint64(event.ProofID),
		event.Hash, event.Description, event.Owner.String(),
		event.From.String(), event.To.String(), event.Confirmer.String(),
		event.Role, event.Subject.String(), event.Actor.String(),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProof(ctx context.Context, id domain.ProofID) ([]Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, kind, ts, proof_id, hash, description, owner, from_acct, to_acct, confirmer, role, subject, actor
		FROM audit_events WHERE proof_id = $1 ORDER BY ts, id`,
		uint64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event   Event
			kind    string
			proofID uint64
		)
		if err := rows.Scan(&event.ID, &kind, &event.Timestamp, &proofID,
			&event.Hash, &event.Description, &event.Owner,
			&event.From, &event.To, &event.Confirmer,
			&event.Role, &event.Subject, &event.Actor); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Kind = Kind(kind)
		event.ProofID = domain.ProofID(proofID)
		out = append(out, event)
	}
	return out, rows.Err()
}
