package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"proofvault/internal/audit"
	"proofvault/pkg/domain"
	dErrors "proofvault/pkg/domain-errors"
)

type roleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

func (r roleRequest) parse() (domain.Role, domain.Account, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid role")
	}
	account, err := domain.ParseAccount(r.Account)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid account")
	}
	return role, account, nil
}

type batchRoleRequest struct {
	Role     string   `json:"role"`
	Accounts []string `json:"accounts"`
}

func (r batchRoleRequest) parse() (domain.Role, []domain.Account, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid role")
	}
	accounts := make([]domain.Account, 0, len(r.Accounts))
	for _, raw := range r.Accounts {
		account, err := domain.ParseAccount(raw)
		if err != nil {
			return "", nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid account")
		}
		accounts = append(accounts, account)
	}
	return role, accounts, nil
}

type addProofRequest struct {
	Hash        string `json:"hash"`
	Recipient   string `json:"recipient,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r addProofRequest) parse() (domain.Hash, domain.Account, error) {
	hash, err := domain.ParseHash(r.Hash)
	if err != nil {
		return domain.ZeroHash, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid hash")
	}
	// An absent recipient mints to the caller.
	if r.Recipient == "" {
		return hash, domain.ZeroAccount, nil
	}
	recipient, err := domain.ParseAccount(r.Recipient)
	if err != nil {
		return domain.ZeroHash, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid recipient")
	}
	return hash, recipient, nil
}

type transferRequest struct {
	ProofID string `json:"proof_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (r transferRequest) parse() (domain.ProofID, domain.Account, domain.Account, error) {
	id, err := domain.ParseProofID(r.ProofID)
	if err != nil {
		return domain.SentinelProofID, "", "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid proof id")
	}
	from, err := domain.ParseAccount(r.From)
	if err != nil {
		return domain.SentinelProofID, "", "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid from account")
	}
	to, err := domain.ParseAccount(r.To)
	if err != nil {
		return domain.SentinelProofID, "", "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid to account")
	}
	return id, from, to, nil
}

type approveRequest struct {
	ProofID  string `json:"proof_id"`
	Delegate string `json:"delegate"`
}

type operatorRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type proofIDResponse struct {
	ID domain.ProofID `json:"id"`
}

type proofResponse struct {
	ID          domain.ProofID `json:"id"`
	Hash        string         `json:"hash"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description,omitempty"`
}

type hasRoleResponse struct {
	Has bool `json:"has"`
}

type confirmationCountResponse struct {
	Count int `json:"count"`
}

type confirmedResponse struct {
	Confirmed bool `json:"confirmed"`
}

type ownerResponse struct {
	Owner domain.Account `json:"owner"`
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

type eventsResponse struct {
	Events []audit.Event `json:"events"`
}

func proofIDParam(r *http.Request) (domain.ProofID, error) {
	id, err := domain.ParseProofID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.SentinelProofID, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid proof id")
	}
	return id, nil
}

func accountParam(r *http.Request, name string) (domain.Account, error) {
	account, err := domain.ParseAccount(chi.URLParam(r, name))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid account")
	}
	return account, nil
}

func indexParam(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid index")
	}
	return index, nil
}
