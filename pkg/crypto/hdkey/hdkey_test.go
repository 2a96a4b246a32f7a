package hdkey

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = StretchParams{Time: 1, Memory: 8 * 1024, Threads: 1}

func TestNewMasterKey(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	masterKey, err := NewMasterKey(seed)
	require.NoError(t, err)
	assert.Equal(t, "m", masterKey.Path())
	assert.True(t, masterKey.IsPrivate())

	// BIP32 test vector 1.
	assert.Equal(t, "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
		masterKey.ExtendedPrivateKey())
	assert.Equal(t, "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
		masterKey.ExtendedPublicKey())

	child, err := masterKey.DerivePath("m/0'")
	require.NoError(t, err)
	assert.Equal(t, "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
		child.ExtendedPrivateKey())

	_, err = NewMasterKey([]byte("too short"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "seed must be at least 16 bytes")
}

func TestFromTicket(t *testing.T) {
	ticket := bytes.Repeat([]byte{0x42}, 32)

	a, err := FromTicket(ticket, nil, fastParams)
	require.NoError(t, err)
	b, err := FromTicket(ticket, []byte(DefaultSalt), fastParams)
	require.NoError(t, err)
	c, err := FromTicket(ticket, []byte("another salt"), fastParams)
	require.NoError(t, err)

	assert.Equal(t, a.ExtendedPrivateKey(), b.ExtendedPrivateKey())
	assert.NotEqual(t, a.ExtendedPrivateKey(), c.ExtendedPrivateKey())

	_, err = FromTicket(make([]byte, 8), nil, fastParams)
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ticket := bytes.Repeat([]byte{0x01}, 16)

	seed, err := Seed(ticket, nil, fastParams)
	require.NoError(t, err)
	assert.Len(t, seed, SeedSize)

	again, err := Seed(ticket, nil, fastParams)
	require.NoError(t, err)
	assert.Equal(t, seed, again)

	slower, err := Seed(ticket, nil, StretchParams{Time: 2, Memory: 8 * 1024, Threads: 1})
	require.NoError(t, err)
	assert.NotEqual(t, seed, slower)
}

func TestStretchParamsValidation(t *testing.T) {
	ticket := make([]byte, 16)

	tests := []struct {
		name   string
		params StretchParams
	}{
		{"zero time", StretchParams{Time: 0, Memory: 8 * 1024, Threads: 1}},
		{"zero threads", StretchParams{Time: 1, Memory: 8 * 1024, Threads: 0}},
		{"memory below minimum", StretchParams{Time: 1, Memory: 16, Threads: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Seed(ticket, nil, tt.params)
			assert.Error(t, err)
		})
	}

	assert.NoError(t, DefaultStretchParams().validate())
}

func TestDerivePath(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	masterKey, err := NewMasterKey(seed)
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{name: "Valid BIP44 path", path: "m/44'/0'/0'/0/0"},
		{name: "h hardened marker", path: "m/84h/0h/0h"},
		{name: "master", path: "m"},
		{name: "Invalid path - no m/", path: "44'/0'/0'/0/0", wantError: true},
		{name: "Invalid path - invalid segment", path: "m/44'/abc/0'/0/0", wantError: true},
		{name: "Invalid path - empty segment", path: "m/44'//0", wantError: true},
		{name: "Invalid path - index too large", path: "m/2147483648", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derivedKey, err := masterKey.DerivePath(tt.path)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, derivedKey.Path())
		})
	}
}

func TestParsePath(t *testing.T) {
	indices, err := ParsePath("m/44'/60h/1/2")
	require.NoError(t, err)
	assert.Equal(t, []uint32{44 + HardenedKeyOffset, 60 + HardenedKeyOffset, 1, 2}, indices)

	indices, err = ParsePath("m")
	require.NoError(t, err)
	assert.Empty(t, indices)

	assert.NoError(t, ValidatePath("m/0"))
	assert.Error(t, ValidatePath("x/0"))
}

func TestFromExtendedKey(t *testing.T) {
	masterKey, err := FromTicket(bytes.Repeat([]byte{7}, 24), nil, fastParams)
	require.NoError(t, err)

	restored, err := FromExtendedKey(masterKey.ExtendedPrivateKey())
	require.NoError(t, err)
	assert.Equal(t, masterKey.PublicKeyHex(), restored.PublicKeyHex())
	assert.True(t, restored.IsPrivate())

	public, err := FromExtendedKey(masterKey.ExtendedPublicKey())
	require.NoError(t, err)
	assert.False(t, public.IsPrivate())

	_, err = FromExtendedKey("xprvgarbage")
	assert.Error(t, err)
}

func TestKeyConsistency(t *testing.T) {
	ticket := bytes.Repeat([]byte{0x99}, 32)

	k1, err := FromTicket(ticket, nil, fastParams)
	require.NoError(t, err)
	k2, err := FromTicket(ticket, nil, fastParams)
	require.NoError(t, err)

	d1, err := k1.DerivePath("m/44'/0'/0'/0/0")
	require.NoError(t, err)
	d2, err := k2.DerivePath("m/44'/0'/0'/0/0")
	require.NoError(t, err)

	assert.Equal(t, d1.ExtendedPrivateKey(), d2.ExtendedPrivateKey())
	assert.Len(t, d1.Fingerprint(), 8)
	assert.Len(t, d1.PublicKeyHex(), 66)
}
