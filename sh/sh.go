// Package sh maps real spherical-harmonic (order, degree) pairs to linear
// coefficient indices and exposes the per-degree row blocks of a basis
// matrix laid out in that order.
package sh

import "errors"

var ErrBadDegree = errors.New("sh: degree out of range")
var ErrBadOrder = errors.New("sh: order exceeds degree")
var ErrNotSquare = errors.New("sh: row count is not a perfect square")

// Mapper gives the linear position of the coefficient for a signed
// (order, degree) pair. Negative orders address the sine family,
// non-negative orders the cosine family.
type Mapper interface {
	Index(order, degree int) (int, error)
}

var (
	linear *LinearMapper
	_      Mapper = linear // Check that LinearMapper respects the Mapper interface.
)

// LinearMapper implements the canonical degree-major layout
//
//	index(m, l) = l*l + l + m,  0 <= l <= L, -l <= m <= l
//
// which enumerates all (L+1)^2 coefficients of a degree-L expansion, one
// contiguous block per degree.
type LinearMapper struct {
	maxDegree int
}

func NewLinearMapper(maxDegree int) (*LinearMapper, error) {
	if maxDegree < 0 {
		return nil, ErrBadDegree
	}
	return &LinearMapper{maxDegree: maxDegree}, nil
}

func (p *LinearMapper) MaxDegree() int {
	return p.maxDegree
}

// Size is the number of coefficients addressed by the mapper, (L+1)^2.
func (p *LinearMapper) Size() int {
	n := p.maxDegree + 1
	return n * n
}

func (p *LinearMapper) Index(order, degree int) (int, error) {
	if degree < 0 || degree > p.maxDegree {
		return 0, ErrBadDegree
	}
	if order < -degree || order > degree {
		return 0, ErrBadOrder
	}
	return degree*degree + degree + order, nil
}

// Block marks the rows [Lo, Hi) of one degree in a basis matrix whose rows
// follow the linear index order.
type Block struct {
	Degree int
	Lo, Hi int
}

// Blocks returns the row ranges of every degree 0..maxDegree.
func Blocks(maxDegree int) []Block {
	blocks := make([]Block, 0, maxDegree+1)
	for l := 0; l <= maxDegree; l++ {
		blocks = append(blocks, Block{
			Degree: l,
			Lo:     l * l,
			Hi:     (l + 1) * (l + 1),
		})
	}
	return blocks
}

// BlocksForRows derives the canonical blocks for a basis with the given
// number of rows. The row count must be a perfect square (degree count
// squared); anything else cannot be a complete truncated expansion.
func BlocksForRows(rows int) ([]Block, error) {
	if rows < 1 {
		return nil, ErrNotSquare
	}
	side := 1
	for side*side < rows {
		side++
	}
	if side*side != rows {
		return nil, ErrNotSquare
	}
	return Blocks(side - 1), nil
}
