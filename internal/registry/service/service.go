// Package service exposes the proof registry's public operation surface.
// Every mutating call runs as one registry transaction: role check,
// uniqueness/existence checks, the state transition, and the audit trail row
// commit together or not at all. External fan-out (Kafka) happens after
// commit.
package service

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks proofvault/internal/audit Publisher
//go:generate mockgen -destination=mocks/mock_receiver.go -package=mocks proofvault/internal/ledger ReceiverCheck

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"proofvault/internal/audit"
	"proofvault/internal/ledger"
	"proofvault/internal/platform/metrics"
	"proofvault/internal/proofs"
	"proofvault/internal/proofs/cache"
	"proofvault/internal/registry"
	"proofvault/pkg/domain"
	dErrors "proofvault/pkg/domain-errors"
	"proofvault/pkg/platform/sentinel"
	"proofvault/pkg/requestcontext"
)

// Service composes the role registry, proof store, ownership ledger, and
// confirmation tracker. It adds no business rules beyond composing them.
type Service struct {
	tx        registry.Tx
	receivers ledger.ReceiverCheck
	trail     audit.Sink
	events    audit.Publisher
	cache     *cache.Cache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New builds the facade. trail is the durable outbox written inside each
// mutation's transaction; events is the post-commit fan-out publisher.
func New(
	tx registry.Tx,
	receivers ledger.ReceiverCheck,
	trail audit.Sink,
	events audit.Publisher,
	proofCache *cache.Cache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if receivers == nil {
		receivers = ledger.AcceptAll{}
	}
	return &Service{
		tx:        tx,
		receivers: receivers,
		trail:     trail,
		events:    events,
		cache:     proofCache,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("proofvault/registry"),
	}
}

// Bootstrap grants the admin role to the constructing identity. It runs once
// at startup and is the only grant that bypasses the admin check; no
// operational role is auto-granted.
func (s *Service) Bootstrap(ctx context.Context, admin domain.Account) error {
	if admin.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "bootstrap admin account is required")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		_, err := st.Roles.Grant(ctx, domain.RoleAdmin, admin)
		return err
	})
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

func (s *Service) GrantRole(ctx context.Context, caller domain.Account, role domain.Role, account domain.Account) (err error) {
	ctx, finish := s.begin(ctx, "GrantRole")
	defer func() { finish(err) }()

	if account.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "account is required")
	}

	var (
		changed bool
		pending []audit.Event
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if err := requireRole(ctx, st, domain.AdminOf(role), caller); err != nil {
			return err
		}
		changed, err = st.Roles.Grant(ctx, role, account)
		if err != nil || !changed {
			return err
		}
		return s.record(ctx, &pending, audit.Event{
			Kind:    audit.KindRoleGranted,
			Role:    role.String(),
			Subject: account,
			Actor:   caller,
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.metrics.RoleGrants.Inc()
	}
	s.publish(ctx, pending)
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, caller domain.Account, role domain.Role, account domain.Account) (err error) {
	ctx, finish := s.begin(ctx, "RevokeRole")
	defer func() { finish(err) }()

	if account.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "account is required")
	}

	var (
		changed bool
		pending []audit.Event
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if err := requireRole(ctx, st, domain.AdminOf(role), caller); err != nil {
			return err
		}
		changed, err = st.Roles.Revoke(ctx, role, account)
		if err != nil || !changed {
			return err
		}
		return s.record(ctx, &pending, audit.Event{
			Kind:    audit.KindRoleRevoked,
			Role:    role.String(),
			Subject: account,
			Actor:   caller,
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.metrics.RoleRevokes.Inc()
	}
	s.publish(ctx, pending)
	return nil
}

// BatchGrantRole applies grants in order inside one transaction: an
// unauthorized caller leaves the whole batch unapplied.
func (s *Service) BatchGrantRole(ctx context.Context, caller domain.Account, role domain.Role, accounts []domain.Account) (err error) {
	ctx, finish := s.begin(ctx, "BatchGrantRole")
	defer func() { finish(err) }()

	if len(accounts) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "accounts must not be empty")
	}
	for _, account := range accounts {
		if account.IsZero() {
			return dErrors.New(dErrors.CodeBadRequest, "account is required")
		}
	}

	var pending []audit.Event
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if err := requireRole(ctx, st, domain.AdminOf(role), caller); err != nil {
			return err
		}
		for _, account := range accounts {
			changed, err := st.Roles.Grant(ctx, role, account)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			if err := s.record(ctx, &pending, audit.Event{
				Kind:    audit.KindRoleGranted,
				Role:    role.String(),
				Subject: account,
				Actor:   caller,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for range pending {
		s.metrics.RoleGrants.Inc()
	}
	s.publish(ctx, pending)
	return nil
}

func (s *Service) HasRole(ctx context.Context, role domain.Role, account domain.Account) (has bool, err error) {
	ctx, finish := s.begin(ctx, "HasRole")
	defer func() { finish(err) }()

	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		has, err = st.Roles.Has(ctx, role, account)
		return err
	})
	return has, err
}

// ---------------------------------------------------------------------------
// Proofs
// ---------------------------------------------------------------------------

func (s *Service) AddProof(ctx context.Context, caller, recipient domain.Account, hash domain.Hash, description string) (id domain.ProofID, err error) {
	ctx, finish := s.begin(ctx, "AddProof")
	defer func() { finish(err) }()

	// The zero-hash rejection holds regardless of role state.
	if hash.IsZero() {
		return domain.SentinelProofID, dErrors.New(dErrors.CodeZeroHash, "proof hash must not be zero")
	}
	if recipient.IsZero() {
		recipient = caller
	}

	var pending []audit.Event
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if err := requireRole(ctx, st, domain.RoleProofWhitelisted, caller); err != nil {
			return err
		}
		existing, err := st.Proofs.IDByHash(ctx, hash)
		if err != nil {
			return err
		}
		if !existing.IsSentinel() {
			return dErrors.Newf(dErrors.CodeDuplicateHash, "hash %s already registered as proof %s", hash, existing)
		}

		id, err = st.Proofs.NextID(ctx)
		if err != nil {
			return err
		}
		record := proofs.Record{
			ID:          id,
			Hash:        hash,
			Timestamp:   requestcontext.Now(ctx),
			Description: description,
		}
		if err := st.Proofs.Put(ctx, record); err != nil {
			return err
		}
		if err := ledger.Mint(ctx, st.Ledger, id, recipient); err != nil {
			return err
		}

		if err := s.record(ctx, &pending, audit.Event{
			Kind:        audit.KindProofAdded,
			ProofID:     id,
			Hash:        hash.String(),
			Description: description,
			Owner:       recipient,
			Actor:       caller,
		}); err != nil {
			return err
		}
		return s.record(ctx, &pending, audit.Event{
			Kind:    audit.KindOwnershipTransferred,
			ProofID: id,
			From:    domain.ZeroAccount,
			To:      recipient,
			Actor:   caller,
		})
	})
	if err != nil {
		return domain.SentinelProofID, err
	}

	s.metrics.ProofsAdded.Inc()
	s.publish(ctx, pending)
	return id, nil
}

func (s *Service) DeleteProof(ctx context.Context, caller domain.Account, id domain.ProofID) (err error) {
	ctx, finish := s.begin(ctx, "DeleteProof")
	defer func() { finish(err) }()

	var (
		record  proofs.Record
		pending []audit.Event
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		record, err = st.Proofs.Get(ctx, id)
		if err != nil {
			return translateNotFound(err, id)
		}
		ok, err := ledger.CanOperate(ctx, st.Ledger, id, caller)
		if err != nil {
			return translateNotFound(err, id)
		}
		if !ok {
			return dErrors.Newf(dErrors.CodeNotOwnerOrApproved, "%s may not delete proof %s", caller, id)
		}

		// Hash index, metadata, confirmation set, and ownership go in one
		// atomic step; the id is never reused afterwards.
		if err := st.Proofs.Delete(ctx, id); err != nil {
			return err
		}
		if err := st.Confirmations.Drop(ctx, id); err != nil {
			return err
		}
		owner, err := ledger.Burn(ctx, st.Ledger, id)
		if err != nil {
			return err
		}
		// Deletion records only the ownership burn; there is no dedicated
		// removal event.
		return s.record(ctx, &pending, audit.Event{
			Kind:    audit.KindOwnershipTransferred,
			ProofID: id,
			From:    owner,
			To:      domain.ZeroAccount,
			Actor:   caller,
		})
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, record.Hash, id); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed after delete",
			"proof_id", id.String(),
			"error", err,
		)
	}
	s.metrics.ProofsDeleted.Inc()
	s.publish(ctx, pending)
	return nil
}

func (s *Service) GetProofIDByHash(ctx context.Context, hash domain.Hash) (id domain.ProofID, err error) {
	ctx, finish := s.begin(ctx, "GetProofIDByHash")
	defer func() { finish(err) }()

	if cached, ok := s.cache.IDByHash(ctx, hash); ok {
		return cached, nil
	}
	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		id, err = st.Proofs.IDByHash(ctx, hash)
		return err
	})
	if err != nil {
		return domain.SentinelProofID, err
	}
	s.cache.StoreIDByHash(ctx, hash, id)
	return id, nil
}

func (s *Service) GetProofData(ctx context.Context, id domain.ProofID) (record proofs.Record, err error) {
	ctx, finish := s.begin(ctx, "GetProofData")
	defer func() { finish(err) }()

	if cached, ok := s.cache.Proof(ctx, id); ok {
		return cached, nil
	}
	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		record, err = st.Proofs.Get(ctx, id)
		return translateNotFound(err, id)
	})
	if err != nil {
		return proofs.Record{}, err
	}
	s.cache.StoreProof(ctx, record)
	return record, nil
}

// ---------------------------------------------------------------------------
// Confirmations
// ---------------------------------------------------------------------------

func (s *Service) AddConfirmation(ctx context.Context, caller domain.Account, id domain.ProofID) (err error) {
	ctx, finish := s.begin(ctx, "AddConfirmation")
	defer func() { finish(err) }()

	var pending []audit.Event
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if _, err := st.Proofs.Get(ctx, id); err != nil {
			return translateNotFound(err, id)
		}
		if err := requireRole(ctx, st, domain.RoleConfirmWhitelisted, caller); err != nil {
			return err
		}
		if err := st.Confirmations.Add(ctx, id, caller); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeAlreadyConfirmed, "%s already confirmed proof %s", caller, id)
			}
			return err
		}
		return s.record(ctx, &pending, audit.Event{
			Kind:      audit.KindProofConfirmed,
			ProofID:   id,
			Confirmer: caller,
			Actor:     caller,
		})
	})
	if err != nil {
		return err
	}

	s.metrics.Confirmations.Inc()
	s.publish(ctx, pending)
	return nil
}

func (s *Service) GetProofConfirmationCount(ctx context.Context, id domain.ProofID) (count int, err error) {
	ctx, finish := s.begin(ctx, "GetProofConfirmationCount")
	defer func() { finish(err) }()

	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if _, err := st.Proofs.Get(ctx, id); err != nil {
			return translateNotFound(err, id)
		}
		count, err = st.Confirmations.Count(ctx, id)
		return err
	})
	return count, err
}

func (s *Service) IsConfirmedBy(ctx context.Context, id domain.ProofID, account domain.Account) (confirmed bool, err error) {
	ctx, finish := s.begin(ctx, "IsConfirmedBy")
	defer func() { finish(err) }()

	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if _, err := st.Proofs.Get(ctx, id); err != nil {
			return translateNotFound(err, id)
		}
		confirmed, err = st.Confirmations.Has(ctx, id, account)
		return err
	})
	return confirmed, err
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

// Transfer moves ownership of id from -> to. With safe=true the recipient's
// receiving capability is negotiated before anything changes; unsafe skips
// that at the caller's risk.
func (s *Service) Transfer(ctx context.Context, caller domain.Account, id domain.ProofID, from, to domain.Account, safe bool) (err error) {
	ctx, finish := s.begin(ctx, "Transfer")
	defer func() { finish(err) }()

	var pending []audit.Event
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		if safe {
			if err := s.receivers.CanReceive(ctx, to, id); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnsafeRecipient, "recipient cannot accept ownership")
			}
		}
		if err := ledger.Transfer(ctx, st.Ledger, id, from, to, caller); err != nil {
			return translateNotFound(err, id)
		}
		return s.record(ctx, &pending, audit.Event{
			Kind:    audit.KindOwnershipTransferred,
			ProofID: id,
			From:    from,
			To:      to,
			Actor:   caller,
		})
	})
	if err != nil {
		return err
	}

	s.metrics.Transfers.Inc()
	s.publish(ctx, pending)
	return nil
}

func (s *Service) Approve(ctx context.Context, caller domain.Account, id domain.ProofID, delegate domain.Account) (err error) {
	ctx, finish := s.begin(ctx, "Approve")
	defer func() { finish(err) }()

	return s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		return translateNotFound(ledger.Approve(ctx, st.Ledger, id, delegate, caller), id)
	})
}

func (s *Service) SetApprovalForAll(ctx context.Context, caller, operator domain.Account, approved bool) (err error) {
	ctx, finish := s.begin(ctx, "SetApprovalForAll")
	defer func() { finish(err) }()

	if operator.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "operator is required")
	}
	if operator == caller {
		return dErrors.New(dErrors.CodeBadRequest, "caller cannot be its own operator")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context, st registry.Stores) error {
		return st.Ledger.SetOperator(ctx, caller, operator, approved)
	})
}

func (s *Service) OwnerOf(ctx context.Context, id domain.ProofID) (owner domain.Account, err error) {
	ctx, finish := s.begin(ctx, "OwnerOf")
	defer func() { finish(err) }()

	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		owner, err = st.Ledger.OwnerOf(ctx, id)
		return translateNotFound(err, id)
	})
	return owner, err
}

func (s *Service) BalanceOf(ctx context.Context, account domain.Account) (count int, err error) {
	ctx, finish := s.begin(ctx, "BalanceOf")
	defer func() { finish(err) }()

	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		count, err = st.Ledger.OwnedCount(ctx, account)
		return err
	})
	return count, err
}

func (s *Service) TokenOfOwnerByIndex(ctx context.Context, account domain.Account, index int) (id domain.ProofID, err error) {
	ctx, finish := s.begin(ctx, "TokenOfOwnerByIndex")
	defer func() { finish(err) }()

	err = s.tx.RunInReadTx(ctx, func(ctx context.Context, st registry.Stores) error {
		id, err = st.Ledger.OwnedByIndex(ctx, account, index)
		if errors.Is(err, sentinel.ErrOutOfRange) {
			return dErrors.Newf(dErrors.CodeOutOfRange, "index %d exceeds balance of %s", index, account)
		}
		return err
	})
	return id, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func requireRole(ctx context.Context, st registry.Stores, role domain.Role, caller domain.Account) error {
	if caller.IsZero() {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller lacks role %s", role)
	}
	has, err := st.Roles.Has(ctx, role, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !has {
		return dErrors.Newf(dErrors.CodeUnauthorized, "%s lacks role %s", caller, role)
	}
	return nil
}

func translateNotFound(err error, id domain.ProofID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "proof %s does not exist", id)
	}
	return err
}

// record stamps the event and appends it to the trail through the
// tx-carrying context, so the audit row commits with the mutation it
// describes. The stamped event is kept for post-commit fan-out.
func (s *Service) record(ctx context.Context, pending *[]audit.Event, event audit.Event) error {
	event.ID = uuid.NewString()
	event.Timestamp = requestcontext.Now(ctx)
	if s.trail != nil {
		if err := s.trail.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "audit trail append failed")
		}
	}
	*pending = append(*pending, event)
	return nil
}

// publish fans committed events out to the publisher. The trail row is
// already durable; fan-out delivery is at-most-once.
func (s *Service) publish(ctx context.Context, pending []audit.Event) {
	if s.events == nil {
		return
	}
	for _, event := range pending {
		if err := s.events.Emit(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "event fan-out failed",
				"kind", string(event.Kind),
				"proof_id", event.ProofID.String(),
				"error", err,
			)
		}
	}
}

// begin opens a span and returns a finisher that records latency and, on
// failure, the domain code.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+op)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			s.metrics.RecordFailure(string(dErrors.CodeOf(err)))
		}
		s.metrics.ObserveOperation(op, start)
		span.End()
	}
}
