package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = KDFParams{Time: 1, MemoryKiB: 8 * 1024, Threads: 1}

func TestSealOpen(t *testing.T) {
	plaintext := []byte(`{"shares":["~zod"]}`)

	sealed, err := Seal(plaintext, []byte("correct horse"), fastParams)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "shares")

	got, err := Open(sealed, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSealIsRandomized(t *testing.T) {
	a, err := Seal([]byte("same"), []byte("pw"), fastParams)
	require.NoError(t, err)
	b, err := Seal([]byte("same"), []byte("pw"), fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("right"), fastParams)
	require.NoError(t, err)

	_, err = Open(sealed, []byte("wrong"))
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestOpenTampered(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("pw"), fastParams)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(sealed, &env))
	env.Ciphertext[0] ^= 1
	tampered, err := json.Marshal(env)
	require.NoError(t, err)

	_, err = Open(tampered, []byte("pw"))
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestOpenRejects(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("pw"), fastParams)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(sealed, &env))
	env.Version = 9
	future, err := json.Marshal(env)
	require.NoError(t, err)

	env.Version = FormatVersion
	env.Params = KDFParams{Time: 1<<32 - 1, MemoryKiB: 1<<32 - 1, Threads: 255}
	costly, err := json.Marshal(env)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		pass string
	}{
		{"plain json", []byte(`{"shares":[]}`), "pw"},
		{"not json", []byte("~zod\n~nec\n"), "pw"},
		{"empty passphrase", sealed, ""},
		{"future version", future, "pw"},
		{"oversized kdf params", costly, "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data, []byte(tt.pass))
			assert.Error(t, err)
		})
	}

	assert.False(t, IsSealed([]byte(`{"shares":[]}`)))
}

func TestSealRejects(t *testing.T) {
	_, err := Seal([]byte("x"), nil, fastParams)
	assert.Error(t, err)

	_, err = Seal([]byte("x"), []byte("pw"), KDFParams{Time: 1, MemoryKiB: 4, Threads: 1})
	assert.Error(t, err)
}

func TestKDFParamsLimits(t *testing.T) {
	assert.NoError(t, DefaultKDFParams().Validate())
	assert.NoError(t, KDFParams{Time: MaxKDFTime, MemoryKiB: MaxKDFMemoryKiB, Threads: MaxKDFThreads}.Validate())

	tests := []struct {
		name   string
		params KDFParams
	}{
		{"time", KDFParams{Time: MaxKDFTime + 1, MemoryKiB: 8 * 1024, Threads: 1}},
		{"memory", KDFParams{Time: 1, MemoryKiB: MaxKDFMemoryKiB + 1, Threads: 1}},
		{"threads", KDFParams{Time: 1, MemoryKiB: 8 * 1024, Threads: MaxKDFThreads + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.params.Validate(), "exceed limits")
		})
	}
}

func TestSecureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets", "family.json")
	f := NewSecureFile(path)
	f.Params = fastParams

	assert.False(t, f.Exists())
	require.NoError(t, f.Save([]byte("payload"), []byte("pw")))
	assert.True(t, f.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := f.Load([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, f.Delete())
	assert.False(t, f.Exists())
	assert.NoError(t, f.Delete())
}
