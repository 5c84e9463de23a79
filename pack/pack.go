// Package pack converts a flat coefficient vector into the pair of
// order/degree matrices expected by harmonic-synthesis consumers.
package pack

import (
	"errors"

	"github.com/solter/sphere-interp/sh"
	"gonum.org/v1/gonum/mat"
)

var ErrBadLength = errors.New("pack: coefficient count is not a squared degree count plus one")
var ErrMapperRange = errors.New("pack: mapper index outside the coefficient vector")

// Matrices partitions a coefficient vector of length (L+1)^2+1 (mean in
// slot 0) into two (L+1)x(L+1) matrices indexed [order, degree]:
// a holds the cosine-family coefficients, b the sine family. b is zero
// for order 0, and both are zero wherever order exceeds degree. mapper
// supplies the linear position of each (order, degree) pair.
func Matrices(coeffs []float64, mapper sh.Mapper) (a, b *mat.Dense, err error) {
	n := len(coeffs) - 1
	if n < 1 {
		return nil, nil, ErrBadLength
	}
	side := 1
	for side*side < n {
		side++
	}
	if side*side != n {
		return nil, nil, ErrBadLength
	}

	a = mat.NewDense(side, side, nil)
	b = mat.NewDense(side, side, nil)
	for l := 0; l < side; l++ {
		for m := 0; m <= l; m++ {
			idx, err := mapper.Index(m, l)
			if err != nil {
				return nil, nil, err
			}
			if idx < 0 || idx >= n {
				return nil, nil, ErrMapperRange
			}
			a.Set(m, l, coeffs[1+idx])
			if m == 0 {
				continue
			}
			idx, err = mapper.Index(-m, l)
			if err != nil {
				return nil, nil, err
			}
			if idx < 0 || idx >= n {
				return nil, nil, ErrMapperRange
			}
			b.Set(m, l, coeffs[1+idx])
		}
	}
	return a, b, nil
}
