package audit

import (
	"time"

	"proofvault/pkg/domain"
)

// Kind names an observable registry event.
type Kind string

const (
	// KindProofAdded fires once per successful proof creation.
	KindProofAdded Kind = "proof_added"
	// KindProofConfirmed fires once per recorded confirmation.
	KindProofConfirmed Kind = "proof_confirmed"
	// KindOwnershipTransferred fires on every ownership change. Mints carry a
	// zero From account, burns a zero To account; deletion emits only the
	// burn, never a dedicated removal event.
	KindOwnershipTransferred Kind = "ownership_transferred"
	// KindRoleGranted and KindRoleRevoked fire only when membership actually
	// changes; redundant grants and revokes stay silent.
	KindRoleGranted Kind = "role_granted"
	KindRoleRevoked Kind = "role_revoked"
)

// Event is emitted from domain logic after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	ProofID   domain.ProofID `json:"proof_id"`

	// proof_added
	Hash        string         `json:"hash,omitempty"`
	Description string         `json:"description,omitempty"`
	Owner       domain.Account `json:"owner,omitempty"`

	// ownership_transferred
	From domain.Account `json:"from,omitempty"`
	To   domain.Account `json:"to,omitempty"`

	// proof_confirmed
	Confirmer domain.Account `json:"confirmer,omitempty"`

	// role_granted / role_revoked
	Role    string         `json:"role,omitempty"`
	Subject domain.Account `json:"subject,omitempty"`

	// Actor is the caller whose operation produced the event.
	Actor domain.Account `json:"actor,omitempty"`
}
