// Package gf256 implements arithmetic in GF(2^8) with elements reduced modulo
// the Rijndael polynomial x^8 + x^4 + x^3 + x + 1 (0x11B), the same field used
// by AES and by most byte-oriented Shamir implementations.
package gf256

import (
	"errors"
	"sync"
)

const (
	// Polynomial is the irreducible reduction polynomial x^8 + x^4 + x^3 + x + 1.
	Polynomial = 0x11B

	// Generator 3 has multiplicative order 255 in this field.
	Generator = 3

	order = 255
)

// ErrDivisionByZero is returned when dividing by, or inverting, the zero element.
var ErrDivisionByZero = errors.New("gf256: division by zero in field")

// Field holds the exp/log lookup tables. A Field is immutable after New
// returns and may be shared between goroutines without locking.
type Field struct {
	exp [256]byte
	log [256]byte
}

var (
	defaultField *Field
	defaultOnce  sync.Once
)

// Default returns the process-wide field, building its tables on first use.
func Default() *Field {
	defaultOnce.Do(func() {
		defaultField = New()
	})
	return defaultField
}

// New builds a fresh set of tables. The result is deterministic, so separate
// instances are interchangeable.
func New() *Field {
	f := &Field{}

	x := byte(1)
	for i := 0; i < order; i++ {
		f.exp[i] = x
		f.log[x] = byte(i)
		x = mulSlow(x, Generator)
	}
	f.exp[order] = f.exp[0]

	// log(0) is undefined; every caller checks for zero first.
	f.log[0] = 0

	return f
}

// mulSlow multiplies using the shift-and-add method. It is only used to
// build the tables and to check them in tests.
func mulSlow(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 == 1 {
			p ^= a
		}
		b >>= 1

		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= byte(Polynomial & 0xFF)
		}
	}
	return p
}

// Add returns a + b. Addition in characteristic 2 is XOR.
func (f *Field) Add(a, b byte) byte {
	return a ^ b
}

// Sub returns a - b, which is the same operation as Add.
func (f *Field) Sub(a, b byte) byte {
	return a ^ b
}

// Mul returns a * b.
func (f *Field) Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[(int(f.log[a])+int(f.log[b]))%order]
}

// Div returns a / b, or ErrDivisionByZero when b is zero.
func (f *Field) Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return f.exp[(int(f.log[a])-int(f.log[b])+order)%order], nil
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return f.exp[(order-int(f.log[a]))%order], nil
}
