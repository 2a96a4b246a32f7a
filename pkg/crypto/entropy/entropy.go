// Package entropy provides the raw entropy sources used to build tickets: the
// operating system CSPRNG, a timing-jitter collector and the XOR combiner that
// mixes their output.
package entropy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBitLength is returned for bit lengths that are not a positive
	// multiple of 8, or that are below a component's minimum.
	ErrInvalidBitLength = errors.New("invalid bit length")

	// ErrSourceUnavailable is returned when the system RNG cannot be read.
	ErrSourceUnavailable = errors.New("entropy source unavailable")

	// ErrAuxiliaryTimeout is returned when the auxiliary collector exceeds its
	// time or sample bound before gathering enough material.
	ErrAuxiliaryTimeout = errors.New("auxiliary entropy timeout")
)

// ValidateBits checks that nbits is a positive multiple of 8 and returns the
// corresponding byte count.
func ValidateBits(nbits int) (int, error) {
	if nbits <= 0 || nbits%8 != 0 {
		return 0, fmt.Errorf("%w: %d is not a positive multiple of 8", ErrInvalidBitLength, nbits)
	}
	return nbits / 8, nil
}
