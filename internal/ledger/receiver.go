package ledger

import (
	"context"

	"proofvault/pkg/domain"
)

// ReceiverCheck is the capability negotiation consulted before a safe
// transfer or mint commits. A nil return accepts the recipient; an error
// rejects the whole operation. Unsafe variants bypass the check at the
// caller's risk.
type ReceiverCheck interface {
	CanReceive(ctx context.Context, to domain.Account, id domain.ProofID) error
}

// AcceptAll treats every account as capable of receiving ownership. It is the
// default when the hosting environment registers no receiver contract.
type AcceptAll struct{}

func (AcceptAll) CanReceive(context.Context, domain.Account, domain.ProofID) error {
	return nil
}
