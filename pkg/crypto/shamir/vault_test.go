package shamir

import (
	"testing"

	vaultshamir "github.com/hashicorp/vault/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineVaultParts(t *testing.T) {
	secret := randomSecret(t, 32)

	parts, err := vaultshamir.Split(secret, 5, 3)
	require.NoError(t, err)

	shares := make([]Share, 0, 3)
	for _, part := range parts[1:4] {
		share, err := FromVaultPart(part)
		require.NoError(t, err)
		shares = append(shares, share)
	}

	got, err := Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestVaultCombinesOurShares(t *testing.T) {
	secret := randomSecret(t, 24)

	shares, err := Split(secret, Config{Parts: 4, Threshold: 2})
	require.NoError(t, err)

	parts := [][]byte{shares[3].VaultPart(), shares[0].VaultPart()}
	got, err := vaultshamir.Combine(parts)
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestFromVaultPartRejects(t *testing.T) {
	_, err := FromVaultPart([]byte{0x01})
	assert.ErrorIs(t, err, ErrMalformedShare)

	_, err = FromVaultPart([]byte{0xaa, 0x00})
	assert.ErrorIs(t, err, ErrMalformedShare)
}
