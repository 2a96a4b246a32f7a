package shamir

import (
	"fmt"

	"github.com/yapishu/up8-ticket/pkg/crypto/gf256"
)

// polynomial is c[0] + c[1]x + ... + c[d]x^d over GF(256).
type polynomial struct {
	field        *gf256.Field
	coefficients []byte
}

func newPolynomial(field *gf256.Field, intercept byte, random []byte) polynomial {
	coefficients := make([]byte, len(random)+1)
	coefficients[0] = intercept
	copy(coefficients[1:], random)
	return polynomial{field: field, coefficients: coefficients}
}

// evaluate uses Horner's method.
func (p polynomial) evaluate(x byte) byte {
	if x == 0 {
		return p.coefficients[0]
	}

	degree := len(p.coefficients) - 1
	out := p.coefficients[degree]
	for i := degree - 1; i >= 0; i-- {
		out = p.field.Add(p.field.Mul(out, x), p.coefficients[i])
	}
	return out
}

func (p polynomial) zero() {
	for i := range p.coefficients {
		p.coefficients[i] = 0
	}
}

// lagrangeWeights returns, for each x_i, the basis value
// prod_{j != i} x_j / (x_j - x_i) evaluated at zero. Repeated coordinates
// make a denominator vanish and surface as gf256.ErrDivisionByZero.
func lagrangeWeights(field *gf256.Field, xs []byte) ([]byte, error) {
	weights := make([]byte, len(xs))
	for i, xi := range xs {
		basis := byte(1)
		for j, xj := range xs {
			if i == j {
				continue
			}
			term, err := field.Div(xj, field.Sub(xj, xi))
			if err != nil {
				return nil, fmt.Errorf("duplicate share index %d: %w", xi, err)
			}
			basis = field.Mul(basis, term)
		}
		weights[i] = basis
	}
	return weights, nil
}
