package domain

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the fixed length of a document hash in bytes.
const HashSize = 32

// Hash is a fixed-length document digest. The registry never hashes documents
// itself; callers submit digests computed off-service.
type Hash [HashSize]byte

// ZeroHash is rejected at proof creation and doubles as the "absent" value.
var ZeroHash Hash

// ParseHash decodes a hex-encoded digest, with or without an 0x prefix.
func ParseHash(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if hex.DecodedLen(len(s)) != HashSize {
		return ZeroHash, fmt.Errorf("hash must be %d hex-encoded bytes, got %d characters", HashSize, len(s))
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return ZeroHash, fmt.Errorf("decode hash: %w", err)
	}
	return h, nil
}

// String returns the canonical lowercase hex form without a prefix.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}
