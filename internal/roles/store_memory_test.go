package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"proofvault/pkg/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func (s *MemoryStoreSuite) TestGrantIsIdempotent() {
	ctx := context.Background()
	alice := domain.Account("alice")

	changed, err := s.store.Grant(ctx, domain.RoleProofWhitelisted, alice)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.store.Grant(ctx, domain.RoleProofWhitelisted, alice)
	s.Require().NoError(err)
	s.False(changed, "second grant must be a no-op")

	has, err := s.store.Has(ctx, domain.RoleProofWhitelisted, alice)
	s.Require().NoError(err)
	s.True(has)
}

func (s *MemoryStoreSuite) TestRevokeIsIdempotent() {
	ctx := context.Background()
	alice := domain.Account("alice")

	_, err := s.store.Grant(ctx, domain.RoleConfirmWhitelisted, alice)
	s.Require().NoError(err)

	changed, err := s.store.Revoke(ctx, domain.RoleConfirmWhitelisted, alice)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.store.Revoke(ctx, domain.RoleConfirmWhitelisted, alice)
	s.Require().NoError(err)
	s.False(changed)

	has, err := s.store.Has(ctx, domain.RoleConfirmWhitelisted, alice)
	s.Require().NoError(err)
	s.False(has)
}

func (s *MemoryStoreSuite) TestRolesAreIndependent() {
	ctx := context.Background()
	alice := domain.Account("alice")

	_, err := s.store.Grant(ctx, domain.RoleAdmin, alice)
	s.Require().NoError(err)

	has, err := s.store.Has(ctx, domain.RoleProofWhitelisted, alice)
	s.Require().NoError(err)
	s.False(has, "admin must not imply operational roles")
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}
