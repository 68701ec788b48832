package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"proofvault/internal/audit"
	"proofvault/internal/confirmations"
	"proofvault/internal/jwtauth"
	"proofvault/internal/ledger"
	"proofvault/internal/platform/metrics"
	"proofvault/internal/proofs"
	"proofvault/internal/registry"
	"proofvault/internal/registry/service"
	"proofvault/internal/roles"
	"proofvault/pkg/domain"
)

const testHash = "0x0101010101010101010101010101010101010101010101010101010101010101"

type HandlerSuite struct {
	suite.Suite

	server *httptest.Server
	tokens *jwtauth.Service
	events *audit.MemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	s.tokens = jwtauth.NewService("test-signing-key", "proofvault-test")
	s.events = audit.NewMemoryStore()

	publisher := audit.NewChannelPublisher(64, logger)
	tx := registry.NewMemoryTx(registry.Stores{
		Roles:         roles.NewMemoryStore(),
		Proofs:        proofs.NewMemoryStore(),
		Ledger:        ledger.NewMemoryStore(),
		Confirmations: confirmations.NewMemoryStore(),
	})
	svc := service.New(tx, nil, s.events, publisher, nil, m, logger)
	s.Require().NoError(svc.Bootstrap(s.T().Context(), "admin"))

	router := chi.NewRouter()
	New(svc, s.events, logger, m, s.tokens).Register(router)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) do(method, path string, account domain.Account, body any) *http.Response {
	s.T().Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+"/registry"+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if account != domain.ZeroAccount {
		token, err := s.tokens.IssueToken(account, time.Minute)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, out any) {
	s.T().Helper()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *HandlerSuite) grantRole(role string, account domain.Account) {
	s.T().Helper()
	resp := s.do(http.MethodPost, "/roles/grant", "admin",
		map[string]string{"role": role, "account": string(account)})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *HandlerSuite) addProof(caller domain.Account, hash string) uint64 {
	s.T().Helper()
	resp := s.do(http.MethodPost, "/proofs", caller,
		map[string]string{"hash": hash, "description": "shipment receipt"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created struct {
		ID uint64 `json:"id"`
	}
	s.decode(resp, &created)
	return created.ID
}

func (s *HandlerSuite) TestRejectsMissingToken() {
	resp := s.do(http.MethodPost, "/proofs", domain.ZeroAccount,
		map[string]string{"hash": testHash})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestRejectsGarbageToken() {
	raw, err := json.Marshal(map[string]string{"proof_id": "1", "from": "alice", "to": "bob"})
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/registry/transfers", bytes.NewReader(raw))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestReadsNeedNoToken() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	paths := []string{
		"/proofs/by-hash/" + testHash,
		fmt.Sprintf("/proofs/%d", id),
		fmt.Sprintf("/proofs/%d/owner", id),
		fmt.Sprintf("/proofs/%d/confirmations/count", id),
		"/owners/alice/balance",
	}
	for _, path := range paths {
		resp := s.do(http.MethodGet, path, domain.ZeroAccount, nil)
		s.Equal(http.StatusOK, resp.StatusCode, path)
	}
}

func (s *HandlerSuite) TestGrantRequiresAdmin() {
	resp := s.do(http.MethodPost, "/roles/grant", "alice",
		map[string]string{"role": "proof_whitelisted", "account": "bob"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *HandlerSuite) TestGrantAndQueryRole() {
	s.grantRole("proof_whitelisted", "alice")

	resp := s.do(http.MethodGet, "/roles/has?role=proof_whitelisted&account=alice", "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var has struct {
		Has bool `json:"has"`
	}
	s.decode(resp, &has)
	s.True(has.Has)
}

func (s *HandlerSuite) TestGrantUnknownRole() {
	resp := s.do(http.MethodPost, "/roles/grant", "admin",
		map[string]string{"role": "superuser", "account": "alice"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestBatchGrant() {
	resp := s.do(http.MethodPost, "/roles/grant-batch", "admin",
		map[string]any{"role": "confirm_whitelisted", "accounts": []string{"alice", "bob"}})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	for _, account := range []string{"alice", "bob"} {
		resp := s.do(http.MethodGet, "/roles/has?role=confirm_whitelisted&account="+account, "admin", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var has struct {
			Has bool `json:"has"`
		}
		s.decode(resp, &has)
		s.True(has.Has, account)
	}
}

func (s *HandlerSuite) TestAddProofLifecycle() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)
	s.Equal(uint64(1), id)

	resp := s.do(http.MethodGet, fmt.Sprintf("/proofs/%d", id), "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var record struct {
		ID          uint64 `json:"id"`
		Hash        string `json:"hash"`
		Description string `json:"description"`
	}
	s.decode(resp, &record)
	s.Equal(id, record.ID)
	// The wire format echoes the canonical lowercase hex form, no 0x prefix.
	s.Equal(strings.TrimPrefix(testHash, "0x"), record.Hash)
	s.Equal("shipment receipt", record.Description)

	resp = s.do(http.MethodGet, "/proofs/by-hash/"+testHash, "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var byHash struct {
		ID uint64 `json:"id"`
	}
	s.decode(resp, &byHash)
	s.Equal(id, byHash.ID)

	resp = s.do(http.MethodGet, fmt.Sprintf("/proofs/%d/owner", id), "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var owner struct {
		Owner string `json:"owner"`
	}
	s.decode(resp, &owner)
	s.Equal("alice", owner.Owner)
}

func (s *HandlerSuite) TestAddProofZeroHash() {
	s.grantRole("proof_whitelisted", "alice")
	zero := "0x" + string(bytes.Repeat([]byte("0"), 64))
	resp := s.do(http.MethodPost, "/proofs", "alice", map[string]string{"hash": zero})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *HandlerSuite) TestAddProofDuplicateHash() {
	s.grantRole("proof_whitelisted", "alice")
	s.addProof("alice", testHash)

	resp := s.do(http.MethodPost, "/proofs", "alice", map[string]string{"hash": testHash})
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *HandlerSuite) TestAddProofWithoutRole() {
	resp := s.do(http.MethodPost, "/proofs", "mallory", map[string]string{"hash": testHash})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *HandlerSuite) TestUnknownHashAnswersSentinel() {
	resp := s.do(http.MethodGet, "/proofs/by-hash/"+testHash, "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var byHash struct {
		ID uint64 `json:"id"`
	}
	s.decode(resp, &byHash)
	s.Zero(byHash.ID)
}

func (s *HandlerSuite) TestUnknownProofIs404() {
	resp := s.do(http.MethodGet, "/proofs/42", "alice", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestSentinelIDIsRejected() {
	resp := s.do(http.MethodGet, "/proofs/0", "alice", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestDeleteProof() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodDelete, fmt.Sprintf("/proofs/%d", id), "mallory", nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/proofs/%d", id), "alice", nil)
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodGet, fmt.Sprintf("/proofs/%d", id), "alice", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestConfirmationFlow() {
	s.grantRole("proof_whitelisted", "alice")
	s.grantRole("confirm_whitelisted", "notary")
	id := s.addProof("alice", testHash)
	path := fmt.Sprintf("/proofs/%d/confirmations", id)

	resp := s.do(http.MethodPost, path, "mallory", nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodPost, path, "notary", nil)
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodPost, path, "notary", nil)
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodGet, path+"/count", "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var count struct {
		Count int `json:"count"`
	}
	s.decode(resp, &count)
	s.Equal(1, count.Count)

	resp = s.do(http.MethodGet, path+"/notary", "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var confirmed struct {
		Confirmed bool `json:"confirmed"`
	}
	s.decode(resp, &confirmed)
	s.True(confirmed.Confirmed)
}

func (s *HandlerSuite) TestConfirmMissingProof() {
	s.grantRole("confirm_whitelisted", "notary")
	resp := s.do(http.MethodPost, "/proofs/99/confirmations", "notary", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerSuite) TestTransfer() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodPost, "/transfers", "alice", map[string]string{
		"proof_id": fmt.Sprint(id), "from": "alice", "to": "bob",
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodGet, fmt.Sprintf("/proofs/%d/owner", id), "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var owner struct {
		Owner string `json:"owner"`
	}
	s.decode(resp, &owner)
	s.Equal("bob", owner.Owner)
}

func (s *HandlerSuite) TestTransferByStranger() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodPost, "/transfers?unsafe=true", "mallory", map[string]string{
		"proof_id": fmt.Sprint(id), "from": "alice", "to": "mallory",
	})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *HandlerSuite) TestApproveThenDelegateTransfers() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodPost, "/approvals", "alice", map[string]string{
		"proof_id": fmt.Sprint(id), "delegate": "bob",
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodPost, "/transfers", "bob", map[string]string{
		"proof_id": fmt.Sprint(id), "from": "alice", "to": "carol",
	})
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *HandlerSuite) TestOperatorEndpoint() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodPost, "/operators", "alice", map[string]any{
		"operator": "carol", "approved": true,
	})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodPost, "/transfers", "carol", map[string]string{
		"proof_id": fmt.Sprint(id), "from": "alice", "to": "carol",
	})
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *HandlerSuite) TestEnumerationEndpoints() {
	s.grantRole("proof_whitelisted", "alice")
	s.addProof("alice", testHash)
	s.addProof("alice", "0x0202020202020202020202020202020202020202020202020202020202020202")

	resp := s.do(http.MethodGet, "/owners/alice/balance", "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var balance struct {
		Balance int `json:"balance"`
	}
	s.decode(resp, &balance)
	s.Equal(2, balance.Balance)

	resp = s.do(http.MethodGet, "/owners/alice/proofs/1", "alice", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/owners/alice/proofs/2", "alice", nil)
	s.Equal(http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
}

func (s *HandlerSuite) TestProofEventsEndpoint() {
	s.grantRole("proof_whitelisted", "alice")
	id := s.addProof("alice", testHash)

	resp := s.do(http.MethodGet, fmt.Sprintf("/proofs/%d/events", id), "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var trail struct {
		Events []audit.Event `json:"events"`
	}
	s.decode(resp, &trail)
	s.Require().Len(trail.Events, 2)
	s.Equal(audit.KindProofAdded, trail.Events[0].Kind)
	s.Equal(audit.KindOwnershipTransferred, trail.Events[1].Kind)
}
