package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash(t *testing.T) {
	raw := strings.Repeat("11", HashSize)

	h, err := ParseHash(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, h.String())
	assert.False(t, h.IsZero())

	prefixed, err := ParseHash("0x" + raw)
	require.NoError(t, err)
	assert.Equal(t, h, prefixed)

	_, err = ParseHash("11")
	assert.Error(t, err)

	_, err = ParseHash(strings.Repeat("zz", HashSize))
	assert.Error(t, err)

	zero, err := ParseHash(strings.Repeat("00", HashSize))
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestParseProofID(t *testing.T) {
	id, err := ParseProofID("42")
	require.NoError(t, err)
	assert.Equal(t, ProofID(42), id)

	_, err = ParseProofID("0")
	assert.Error(t, err, "sentinel id is not addressable")

	_, err = ParseProofID("-1")
	assert.Error(t, err)

	_, err = ParseProofID("abc")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	for _, name := range []string{"admin", "proof_whitelisted", "confirm_whitelisted"} {
		r, err := ParseRole(name)
		require.NoError(t, err)
		assert.Equal(t, name, r.String())
		assert.Equal(t, RoleAdmin, AdminOf(r))
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestParseAccount(t *testing.T) {
	a, err := ParseAccount("alice")
	require.NoError(t, err)
	assert.False(t, a.IsZero())

	_, err = ParseAccount("")
	assert.Error(t, err)
	assert.True(t, ZeroAccount.IsZero())
}
