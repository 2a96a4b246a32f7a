// Package shamir implements k-of-n Shamir secret sharing over GF(256). Each
// byte of the secret is the constant term of its own random polynomial, so a
// share is exactly as long as the secret it was cut from.
package shamir

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/yapishu/up8-ticket/pkg/crypto/gf256"
	"github.com/yapishu/up8-ticket/pkg/secure"
)

const (
	MinParts = 2
	MaxParts = 255
)

// ErrMalformedShare is returned for shares that cannot take part in
// interpolation at all: zero index, inconsistent length or bad framing.
var ErrMalformedShare = errors.New("malformed share")

type Share struct {
	Index byte
	Data  []byte
}

type Config struct {
	Parts     int
	Threshold int
}

func (c *Config) Validate() error {
	if c.Parts < MinParts {
		return fmt.Errorf("parts must be at least %d, got %d", MinParts, c.Parts)
	}
	if c.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("threshold (%d) cannot be greater than parts (%d)", c.Threshold, c.Parts)
	}
	if c.Parts > MaxParts {
		return fmt.Errorf("parts cannot exceed %d, got %d", MaxParts, c.Parts)
	}
	return nil
}

// Sharer splits and combines secrets using a shared, read-only field.
type Sharer struct {
	Field *gf256.Field
	// Rand supplies polynomial coefficients. Defaults to crypto/rand.
	Rand io.Reader
}

func NewSharer(field *gf256.Field) *Sharer {
	if field == nil {
		field = gf256.Default()
	}
	return &Sharer{Field: field, Rand: rand.Reader}
}

var defaultSharer = NewSharer(nil)

func Split(secret []byte, config Config) ([]Share, error) {
	return defaultSharer.Split(secret, config)
}

func Combine(shares []Share) ([]byte, error) {
	return defaultSharer.Combine(shares)
}

// Split cuts secret into config.Parts shares with x coordinates 1..Parts, any
// config.Threshold of which recover it.
func (s *Sharer) Split(secret []byte, config Config) ([]Share, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	degree := config.Threshold - 1

	// One fresh block of coefficients per byte position.
	coefficients := make([]byte, len(secret)*degree)
	defer secure.Zero(coefficients)
	if _, err := io.ReadFull(s.random(), coefficients); err != nil {
		return nil, fmt.Errorf("failed to generate polynomial: %w", err)
	}

	shares := make([]Share, config.Parts)
	for i := range shares {
		shares[i] = Share{
			Index: byte(i + 1),
			Data:  make([]byte, len(secret)),
		}
	}

	for pos, b := range secret {
		p := newPolynomial(s.Field, b, coefficients[pos*degree:(pos+1)*degree])
		for i := range shares {
			shares[i].Data[pos] = p.evaluate(shares[i].Index)
		}
		p.zero()
	}

	return shares, nil
}

// Combine interpolates the shares at x = 0. It does not know the threshold the
// shares were produced with: passing fewer than that many returns a well-formed
// but wrong secret rather than an error.
func (s *Sharer) Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("at least 1 share is required for reconstruction")
	}

	size := len(shares[0].Data)
	xs := make([]byte, len(shares))
	for i, share := range shares {
		if share.Index == 0 {
			return nil, fmt.Errorf("%w: share %d has index 0", ErrMalformedShare, i+1)
		}
		if len(share.Data) == 0 {
			return nil, fmt.Errorf("%w: share %d has empty data", ErrMalformedShare, share.Index)
		}
		if len(share.Data) != size {
			return nil, fmt.Errorf("%w: share %d has length %d, expected %d",
				ErrMalformedShare, share.Index, len(share.Data), size)
		}
		xs[i] = share.Index
	}

	weights, err := lagrangeWeights(s.Field, xs)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}

	secret := make([]byte, size)
	for pos := range secret {
		var acc byte
		for i, share := range shares {
			acc = s.Field.Add(acc, s.Field.Mul(share.Data[pos], weights[i]))
		}
		secret[pos] = acc
	}

	return secret, nil
}

func (s *Sharer) random() io.Reader {
	if s.Rand == nil {
		return rand.Reader
	}
	return s.Rand
}

func VerifyShare(share Share, expectedLen int) error {
	if len(share.Data) != expectedLen {
		return fmt.Errorf("invalid share length: expected %d, got %d", expectedLen, len(share.Data))
	}
	if share.Index == 0 {
		return fmt.Errorf("share index cannot be 0")
	}
	return nil
}
