// Package ledger models each proof as a singly-owned, transferable token.
// The rule functions here operate over a Store view supplied by the
// surrounding registry transaction; they validate before the first write so a
// rejected call leaves the store untouched.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"proofvault/pkg/domain"
	dErrors "proofvault/pkg/domain-errors"
	"proofvault/pkg/platform/sentinel"
)

// Mint establishes first ownership of a freshly allocated id.
func Mint(ctx context.Context, s Store, id domain.ProofID, owner domain.Account) error {
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "mint recipient is required")
	}
	if _, err := s.OwnerOf(ctx, id); err == nil {
		return dErrors.Newf(dErrors.CodeInternal, "proof %s already owned", id)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if err := s.SetOwner(ctx, id, owner); err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	return s.AppendOwned(ctx, owner, id)
}

// Burn removes ownership of id entirely, returning the previous owner so the
// caller can emit the transfer-to-zero notification.
func Burn(ctx context.Context, s Store, id domain.ProofID) (domain.Account, error) {
	owner, err := s.OwnerOf(ctx, id)
	if err != nil {
		return domain.ZeroAccount, err
	}
	if err := s.SetApproved(ctx, id, domain.ZeroAccount); err != nil {
		return domain.ZeroAccount, err
	}
	if err := s.RemoveOwned(ctx, owner, id); err != nil {
		return domain.ZeroAccount, err
	}
	if err := s.RemoveOwner(ctx, id); err != nil {
		return domain.ZeroAccount, err
	}
	return owner, nil
}

// CanOperate reports whether caller may move id: caller is the owner, the
// approved delegate for id, or an operator for the owner. The same rule gates
// transfer and deletion.
func CanOperate(ctx context.Context, s Store, id domain.ProofID, caller domain.Account) (bool, error) {
	owner, err := s.OwnerOf(ctx, id)
	if err != nil {
		return false, err
	}
	if caller == owner {
		return true, nil
	}
	approved, err := s.Approved(ctx, id)
	if err != nil {
		return false, err
	}
	if !approved.IsZero() && caller == approved {
		return true, nil
	}
	return s.IsOperator(ctx, owner, caller)
}

// Transfer reassigns ownership from -> to, clearing the per-id approval and
// moving id between enumerations. The receiver capability check for safe
// transfers happens before this is called.
func Transfer(ctx context.Context, s Store, id domain.ProofID, from, to, caller domain.Account) error {
	owner, err := s.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != from {
		return dErrors.Newf(dErrors.CodeNotOwnerOrApproved, "%s does not own proof %s", from, id)
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "transfer recipient is required")
	}
	ok, err := CanOperate(ctx, s, id, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeNotOwnerOrApproved, "%s may not transfer proof %s", caller, id)
	}

	if err := s.SetApproved(ctx, id, domain.ZeroAccount); err != nil {
		return err
	}
	if err := s.RemoveOwned(ctx, from, id); err != nil {
		return err
	}
	if err := s.AppendOwned(ctx, to, id); err != nil {
		return err
	}
	return s.ChangeOwner(ctx, id, to)
}

// Approve sets the single per-id delegate, overwriting any previous one. A
// zero delegate clears the slot. Only the owner or one of the owner's
// operators may approve.
func Approve(ctx context.Context, s Store, id domain.ProofID, delegate, caller domain.Account) error {
	owner, err := s.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if caller != owner {
		isOp, err := s.IsOperator(ctx, owner, caller)
		if err != nil {
			return err
		}
		if !isOp {
			return dErrors.Newf(dErrors.CodeNotOwnerOrApproved, "%s may not approve for proof %s", caller, id)
		}
	}
	return s.SetApproved(ctx, id, delegate)
}
