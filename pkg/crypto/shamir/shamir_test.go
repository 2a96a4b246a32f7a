package shamir

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapishu/up8-ticket/pkg/crypto/gf256"
)

func randomSecret(t testing.TB, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// subsets returns every k-element subset of 0..n-1.
func subsets(n, k int) [][]int {
	var out [][]int
	var walk func(start int, cur []int)
	walk = func(start int, cur []int) {
		if len(cur) == k {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			walk(i+1, append(cur, i))
		}
	}
	walk(0, nil)
	return out
}

func pick(shares []Share, idx []int) []Share {
	out := make([]Share, len(idx))
	for i, j := range idx {
		out[i] = shares[j]
	}
	return out
}

func TestSplitAndCombine(t *testing.T) {
	tests := []struct {
		name      string
		secret    []byte
		parts     int
		threshold int
	}{
		{
			name:      "Simple secret 3 of 5",
			secret:    []byte("my secret data"),
			parts:     5,
			threshold: 3,
		},
		{
			name:      "256-bit key 2 of 3",
			secret:    bytes.Repeat([]byte{0x42}, 32),
			parts:     3,
			threshold: 2,
		},
		{
			name:      "Large secret 5 of 7",
			secret:    bytes.Repeat([]byte("test"), 256),
			parts:     7,
			threshold: 5,
		},
		{
			name:      "All shares required",
			secret:    []byte{0x00, 0x01, 0xfe, 0xff},
			parts:     4,
			threshold: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{
				Parts:     tt.parts,
				Threshold: tt.threshold,
			}

			shares, err := Split(tt.secret, config)
			require.NoError(t, err)
			assert.Len(t, shares, tt.parts)

			for i, share := range shares {
				assert.Len(t, share.Data, len(tt.secret))
				assert.Equal(t, byte(i+1), share.Index)
			}

			reconstructed, err := Combine(shares[:tt.threshold])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, reconstructed)

			reconstructed2, err := Combine(shares[tt.parts-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, reconstructed2)

			all, err := Combine(shares)
			require.NoError(t, err)
			assert.Equal(t, tt.secret, all)
		})
	}
}

func TestEveryThresholdSubsetRecovers(t *testing.T) {
	for _, size := range []int{16, 20, 24, 32} {
		secret := randomSecret(t, size)
		shares, err := Split(secret, Config{Parts: 5, Threshold: 3})
		require.NoError(t, err)

		for _, idx := range subsets(5, 3) {
			got, err := Combine(pick(shares, idx))
			require.NoError(t, err)
			assert.Equal(t, secret, got, "size %d subset %v", size, idx)
		}
	}
}

func TestMaximumParts(t *testing.T) {
	secret := randomSecret(t, 24)

	shares, err := Split(secret, Config{Parts: 255, Threshold: 255})
	require.NoError(t, err)
	require.Len(t, shares, 255)
	assert.Equal(t, byte(255), shares[254].Index)

	got, err := Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	// One short of the threshold interpolates something else.
	wrong, err := Combine(shares[1:])
	require.NoError(t, err)
	assert.NotEqual(t, secret, wrong)
}

func TestCombineInsufficientSharesIsNotAnError(t *testing.T) {
	secret := randomSecret(t, 32)

	shares, err := Split(secret, Config{Parts: 5, Threshold: 3})
	require.NoError(t, err)

	got, err := Combine(shares[:2])
	require.NoError(t, err)
	assert.Len(t, got, len(secret))
	assert.NotEqual(t, secret, got)

	// A single share interpolates to its own value.
	single, err := Combine(shares[:1])
	require.NoError(t, err)
	assert.Equal(t, shares[0].Data, single)
}

func TestBelowThresholdSharesAreUnbiased(t *testing.T) {
	const trials = 20000
	secret := []byte{0x42}

	var hist [256]int
	guessedRight := 0
	for i := 0; i < trials; i++ {
		shares, err := Split(secret, Config{Parts: 3, Threshold: 3})
		require.NoError(t, err)

		hist[shares[0].Data[0]]++

		guess, err := Combine(shares[:2])
		require.NoError(t, err)
		if guess[0] == secret[0] {
			guessedRight++
		}
	}

	expected := float64(trials) / 256
	chi := 0.0
	for _, observed := range hist {
		d := float64(observed) - expected
		chi += d * d / expected
	}
	// 255 degrees of freedom: mean 255, standard deviation about 22.6.
	assert.Less(t, chi, 400.0, "share values are not uniform")

	// Two of three shares should land on the secret about 1/256 of the time.
	assert.Less(t, guessedRight, trials/64)
}

func TestSplitUsesInjectedRandomness(t *testing.T) {
	secret := []byte("constant polynomial")
	sharer := NewSharer(gf256.New())
	sharer.Rand = bytes.NewReader(make([]byte, len(secret)*2))

	shares, err := sharer.Split(secret, Config{Parts: 4, Threshold: 3})
	require.NoError(t, err)
	for _, share := range shares {
		assert.Equal(t, secret, share.Data)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestSplitRandomnessFailure(t *testing.T) {
	sharer := NewSharer(nil)
	sharer.Rand = failingReader{}

	_, err := sharer.Split([]byte("secret"), Config{Parts: 3, Threshold: 2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate polynomial")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{"Valid config", Config{Parts: 5, Threshold: 3}, false},
		{"Boundary config", Config{Parts: 255, Threshold: 255}, false},
		{"Parts too small", Config{Parts: 1, Threshold: 1}, true},
		{"Threshold too small", Config{Parts: 5, Threshold: 1}, true},
		{"Threshold greater than parts", Config{Parts: 3, Threshold: 5}, true},
		{"Parts exceeds maximum", Config{Parts: 256, Threshold: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitRejectsEmptySecret(t *testing.T) {
	_, err := Split(nil, Config{Parts: 3, Threshold: 2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestCombineInvalidShares(t *testing.T) {
	secret := []byte("test secret")

	shares, err := Split(secret, Config{Parts: 5, Threshold: 3})
	require.NoError(t, err)

	_, err = Combine(nil)
	assert.Error(t, err)

	_, err = Combine([]Share{{Index: 1, Data: []byte{}}, shares[1], shares[2]})
	assert.ErrorIs(t, err, ErrMalformedShare)

	_, err = Combine([]Share{shares[0], {Index: 2, Data: []byte{1, 2}}})
	assert.ErrorIs(t, err, ErrMalformedShare)

	_, err = Combine([]Share{{Index: 0, Data: shares[0].Data}, shares[1]})
	assert.ErrorIs(t, err, ErrMalformedShare)

	_, err = Combine([]Share{shares[0], shares[1], shares[0]})
	assert.ErrorIs(t, err, gf256.ErrDivisionByZero)
}

func TestVerifyShare(t *testing.T) {
	shares, err := Split([]byte("test secret"), Config{Parts: 3, Threshold: 2})
	require.NoError(t, err)

	expectedLen := len(shares[0].Data)

	assert.NoError(t, VerifyShare(shares[0], expectedLen))

	err = VerifyShare(Share{Index: 0, Data: shares[0].Data}, expectedLen)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index cannot be 0")

	err = VerifyShare(Share{Index: 1, Data: []byte{1, 2}}, expectedLen)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid share length")
}

func BenchmarkSplit(b *testing.B) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	config := Config{
		Parts:     5,
		Threshold: 3,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Split(secret, config)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCombine(b *testing.B) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	config := Config{
		Parts:     5,
		Threshold: 3,
	}

	shares, err := Split(secret, config)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Combine(shares[:3])
		if err != nil {
			b.Fatal(err)
		}
	}
}
