package proofs

import (
	"time"

	"proofvault/pkg/domain"
)

// Record is the immutable metadata of an active proof. A proof id carries
// exactly one hash and description for its whole lifetime.
type Record struct {
	ID          domain.ProofID `json:"id"`
	Hash        domain.Hash    `json:"-"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description"`
}
