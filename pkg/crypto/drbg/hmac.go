// Package drbg implements the HMAC_DRBG construction of NIST SP 800-90A
// (section 10.1.2) with HMAC-SHA-256.
package drbg

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/yapishu/up8-ticket/pkg/crypto/entropy"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

const (
	// MinEntropyBits is the smallest accepted entropy input.
	MinEntropyBits = 192

	// MaxRequestBytes is the largest single Generate request (2^19 bits).
	MaxRequestBytes = 1 << 16

	outLen = sha256.Size
)

// HMAC holds the working state (K, V). It is not safe for concurrent use.
type HMAC struct {
	k [outLen]byte
	v [outLen]byte
}

// New instantiates the generator from entropy || nonce || personalization.
func New(entropyInput, nonce, personalization []byte) (*HMAC, error) {
	if len(entropyInput)*8 < MinEntropyBits {
		return nil, fmt.Errorf("%w: drbg entropy input is %d bits, need at least %d",
			entropy.ErrInvalidBitLength, len(entropyInput)*8, MinEntropyBits)
	}

	d := &HMAC{}
	for i := range d.v {
		d.v[i] = 0x01
	}

	seed := make([]byte, 0, len(entropyInput)+len(nonce)+len(personalization))
	seed = append(seed, entropyInput...)
	seed = append(seed, nonce...)
	seed = append(seed, personalization...)
	defer secure.Zero(seed)

	d.update(seed)
	return d, nil
}

// update is the HMAC_DRBG_Update function.
func (d *HMAC) update(provided []byte) {
	d.rekey(0x00, provided)
	d.advance()

	if len(provided) == 0 {
		return
	}

	d.rekey(0x01, provided)
	d.advance()
}

// rekey sets K = HMAC(K, V || sep || provided).
func (d *HMAC) rekey(sep byte, provided []byte) {
	mac := hmac.New(sha256.New, d.k[:])
	mac.Write(d.v[:])
	mac.Write([]byte{sep})
	mac.Write(provided)
	mac.Sum(d.k[:0])
}

// advance sets V = HMAC(K, V).
func (d *HMAC) advance() {
	mac := hmac.New(sha256.New, d.k[:])
	mac.Write(d.v[:])
	mac.Sum(d.v[:0])
}

// Generate returns n pseudorandom bytes and advances the state.
func (d *HMAC) Generate(n int) ([]byte, error) {
	return d.GenerateWithInput(n, nil)
}

// GenerateWithInput is Generate with optional additional input.
func (d *HMAC) GenerateWithInput(n int, additional []byte) ([]byte, error) {
	if n <= 0 || n > MaxRequestBytes {
		return nil, fmt.Errorf("drbg request of %d bytes outside 1..%d", n, MaxRequestBytes)
	}

	if len(additional) > 0 {
		d.update(additional)
	}

	out := make([]byte, 0, n+outLen)
	for len(out) < n {
		d.advance()
		out = append(out, d.v[:]...)
	}
	secure.Zero(out[n:cap(out)])

	d.update(additional)
	return out[:n], nil
}

// Destroy zeroes the working state.
func (d *HMAC) Destroy() {
	secure.Zero(d.k[:])
	secure.Zero(d.v[:])
}
