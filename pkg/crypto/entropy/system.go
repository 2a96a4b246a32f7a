package entropy

import (
	"crypto/rand"
	"fmt"
	"io"
)

// System reads from a cryptographically secure generator, crypto/rand unless
// Reader is set.
type System struct {
	Reader io.Reader
}

func NewSystem() *System {
	return &System{Reader: rand.Reader}
}

// Bytes returns n fresh random bytes.
func (s *System) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: cannot read %d bytes", ErrInvalidBitLength, n)
	}

	r := s.Reader
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return b, nil
}
