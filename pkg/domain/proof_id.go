package domain

import (
	"fmt"
	"strconv"
)

// ProofID identifies a proof. Ids are allocated from a strictly increasing
// counter starting at 1 and are never reused, even after deletion.
type ProofID uint64

// SentinelProofID means "no such proof". Lookups by hash return it instead of
// failing when the hash is not indexed.
const SentinelProofID ProofID = 0

// ParseProofID parses a decimal proof id from transport input. The sentinel is
// not addressable from outside.
func ParseProofID(s string) (ProofID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return SentinelProofID, fmt.Errorf("invalid proof id %q", s)
	}
	if v == 0 {
		return SentinelProofID, fmt.Errorf("proof id 0 is reserved")
	}
	return ProofID(v), nil
}

func (id ProofID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsSentinel reports whether the id is the reserved "no such proof" value.
func (id ProofID) IsSentinel() bool {
	return id == SentinelProofID
}
