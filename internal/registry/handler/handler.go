// Package handler is the thin HTTP layer over the registry service. It
// delegates to the service without embedding business rules so transport
// concerns stay isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"proofvault/internal/audit"
	"proofvault/internal/platform/metrics"
	"proofvault/internal/platform/middleware"
	"proofvault/internal/proofs"
	"proofvault/pkg/domain"
	dErrors "proofvault/pkg/domain-errors"
	"proofvault/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer exposes.
type Service interface {
	GrantRole(ctx context.Context, caller domain.Account, role domain.Role, account domain.Account) error
	RevokeRole(ctx context.Context, caller domain.Account, role domain.Role, account domain.Account) error
	BatchGrantRole(ctx context.Context, caller domain.Account, role domain.Role, accounts []domain.Account) error
	HasRole(ctx context.Context, role domain.Role, account domain.Account) (bool, error)

	AddProof(ctx context.Context, caller, recipient domain.Account, hash domain.Hash, description string) (domain.ProofID, error)
	DeleteProof(ctx context.Context, caller domain.Account, id domain.ProofID) error
	GetProofIDByHash(ctx context.Context, hash domain.Hash) (domain.ProofID, error)
	GetProofData(ctx context.Context, id domain.ProofID) (proofs.Record, error)

	AddConfirmation(ctx context.Context, caller domain.Account, id domain.ProofID) error
	GetProofConfirmationCount(ctx context.Context, id domain.ProofID) (int, error)
	IsConfirmedBy(ctx context.Context, id domain.ProofID, account domain.Account) (bool, error)

	Transfer(ctx context.Context, caller domain.Account, id domain.ProofID, from, to domain.Account, safe bool) error
	Approve(ctx context.Context, caller domain.Account, id domain.ProofID, delegate domain.Account) error
	SetApprovalForAll(ctx context.Context, caller, operator domain.Account, approved bool) error
	OwnerOf(ctx context.Context, id domain.ProofID) (domain.Account, error)
	BalanceOf(ctx context.Context, account domain.Account) (int, error)
	TokenOfOwnerByIndex(ctx context.Context, account domain.Account, index int) (domain.ProofID, error)
}

// Trail lists the recorded events of a single proof.
type Trail interface {
	ListByProof(ctx context.Context, id domain.ProofID) ([]audit.Event, error)
}

// Handler handles registry endpoints.
type Handler struct {
	service   Service
	trail     Trail
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

func New(
	service Service,
	trail Trail,
	logger *slog.Logger,
	m *metrics.Metrics,
	validator middleware.TokenValidator,
) *Handler {
	return &Handler{
		service:   service,
		trail:     trail,
		logger:    logger,
		metrics:   m,
		validator: validator,
	}
}

// Register mounts the registry routes. Mutations require a bearer token;
// read routes are mounted without RequireAuth so anyone may read, with only
// existence checks applying. Role checks live in the service.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(30 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.Latency(h.metrics))

	registryRouter.Get("/roles/has", h.handleHasRole)
	registryRouter.Get("/proofs/by-hash/{hash}", h.handleProofIDByHash)
	registryRouter.Get("/proofs/{id}", h.handleProofData)
	registryRouter.Get("/proofs/{id}/owner", h.handleOwnerOf)
	registryRouter.Get("/proofs/{id}/events", h.handleProofEvents)
	registryRouter.Get("/proofs/{id}/confirmations/count", h.handleConfirmationCount)
	registryRouter.Get("/proofs/{id}/confirmations/{account}", h.handleIsConfirmedBy)
	registryRouter.Get("/owners/{account}/balance", h.handleBalanceOf)
	registryRouter.Get("/owners/{account}/proofs/{index}", h.handleProofOfOwnerByIndex)

	registryRouter.Group(func(mutations chi.Router) {
		mutations.Use(middleware.RequireAuth(h.validator, h.logger))

		mutations.Post("/roles/grant", h.handleGrantRole)
		mutations.Post("/roles/revoke", h.handleRevokeRole)
		mutations.Post("/roles/grant-batch", h.handleBatchGrantRole)

		mutations.Post("/proofs", h.handleAddProof)
		mutations.Delete("/proofs/{id}", h.handleDeleteProof)
		mutations.Post("/proofs/{id}/confirmations", h.handleAddConfirmation)

		mutations.Post("/transfers", h.handleTransfer)
		mutations.Post("/approvals", h.handleApprove)
		mutations.Post("/operators", h.handleSetOperator)
	})

	r.Mount("/registry", registryRouter)
}

// --- roles -----------------------------------------------------------------

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, account, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.service.GrantRole(ctx, requestcontext.Caller(ctx), role, account); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, account, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.service.RevokeRole(ctx, requestcontext.Caller(ctx), role, account); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBatchGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req batchRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, accounts, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.service.BatchGrantRole(ctx, requestcontext.Caller(ctx), role, accounts); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := domain.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid role"))
		return
	}
	account, err := domain.ParseAccount(r.URL.Query().Get("account"))
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid account"))
		return
	}
	has, err := h.service.HasRole(ctx, role, account)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, hasRoleResponse{Has: has})
}

// --- proofs ----------------------------------------------------------------

func (h *Handler) handleAddProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hash, recipient, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	id, err := h.service.AddProof(ctx, requestcontext.Caller(ctx), recipient, hash, req.Description)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusCreated, proofIDResponse{ID: id})
}

func (h *Handler) handleDeleteProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.service.DeleteProof(ctx, requestcontext.Caller(ctx), id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProofIDByHash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid hash"))
		return
	}
	id, err := h.service.GetProofIDByHash(ctx, hash)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	// Unknown hashes answer with the sentinel id rather than 404.
	h.writeJSON(ctx, w, http.StatusOK, proofIDResponse{ID: id})
}

func (h *Handler) handleProofData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	record, err := h.service.GetProofData(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, proofResponse{
		ID:          record.ID,
		Hash:        record.Hash.String(),
		Timestamp:   record.Timestamp,
		Description: record.Description,
	})
}

func (h *Handler) handleProofEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	events, err := h.trail.ListByProof(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.writeJSON(ctx, w, http.StatusOK, eventsResponse{Events: events})
}

// --- confirmations -----------------------------------------------------------

func (h *Handler) handleAddConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.service.AddConfirmation(ctx, requestcontext.Caller(ctx), id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConfirmationCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	count, err := h.service.GetProofConfirmationCount(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, confirmationCountResponse{Count: count})
}

func (h *Handler) handleIsConfirmedBy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	account, err := accountParam(r, "account")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	confirmed, err := h.service.IsConfirmedBy(ctx, id, account)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, confirmedResponse{Confirmed: confirmed})
}

// --- ownership ----------------------------------------------------------------

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, from, to, err := req.parse()
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	safe := r.URL.Query().Get("unsafe") != "true"
	if err := h.service.Transfer(ctx, requestcontext.Caller(ctx), id, from, to, safe); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := domain.ParseProofID(req.ProofID)
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid proof id"))
		return
	}
	// An empty delegate clears the approval.
	delegate := domain.Account(req.Delegate)
	if err := h.service.Approve(ctx, requestcontext.Caller(ctx), id, delegate); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req operatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	operator, err := domain.ParseAccount(req.Operator)
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid operator"))
		return
	}
	if err := h.service.SetApprovalForAll(ctx, requestcontext.Caller(ctx), operator, req.Approved); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := proofIDParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	owner, err := h.service.OwnerOf(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, ownerResponse{Owner: owner})
}

func (h *Handler) handleBalanceOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := accountParam(r, "account")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	count, err := h.service.BalanceOf(ctx, account)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, balanceResponse{Balance: count})
}

func (h *Handler) handleProofOfOwnerByIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := accountParam(r, "account")
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	index, err := indexParam(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	id, err := h.service.TokenOfOwnerByIndex(ctx, account, index)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, proofIDResponse{ID: id})
}
