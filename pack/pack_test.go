package pack_test

import (
	"testing"

	"github.com/solter/sphere-interp/pack"
	"github.com/solter/sphere-interp/sh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatrices_Inverse assigns a distinct value at every mapper position
// and checks each one lands at its [order, degree] slot: non-negative
// orders in a, negated orders in b.
func TestMatrices_Inverse(t *testing.T) {
	const maxDegree = 2
	mapper, err := sh.NewLinearMapper(maxDegree)
	require.NoError(t, err)

	value := func(m, l int) float64 { return float64(100*l + 10*m + 1) }
	coeffs := make([]float64, mapper.Size()+1)
	coeffs[0] = -3.5 // mean slot, ignored by the packer
	for l := 0; l <= maxDegree; l++ {
		for m := 0; m <= l; m++ {
			idx, err := mapper.Index(m, l)
			require.NoError(t, err)
			coeffs[1+idx] = value(m, l)
			if m > 0 {
				idx, err = mapper.Index(-m, l)
				require.NoError(t, err)
				coeffs[1+idx] = -value(m, l)
			}
		}
	}

	a, b, err := pack.Matrices(coeffs, mapper)
	require.NoError(t, err)

	ar, ac := a.Dims()
	require.Equal(t, maxDegree+1, ar)
	require.Equal(t, maxDegree+1, ac)

	for l := 0; l <= maxDegree; l++ {
		for m := 0; m <= maxDegree; m++ {
			if m > l {
				assert.Zero(t, a.At(m, l), "a[%d,%d] above the diagonal", m, l)
				assert.Zero(t, b.At(m, l), "b[%d,%d] above the diagonal", m, l)
				continue
			}
			assert.Equal(t, value(m, l), a.At(m, l), "a[%d,%d]", m, l)
			if m == 0 {
				assert.Zero(t, b.At(0, l), "b must be zero for order 0")
			} else {
				assert.Equal(t, -value(m, l), b.At(m, l), "b[%d,%d]", m, l)
			}
		}
	}
}

// TestMatrices_BadLength rejects vectors that cannot come from a complete
// truncated expansion.
func TestMatrices_BadLength(t *testing.T) {
	mapper, err := sh.NewLinearMapper(2)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 8} { // 8 = 7 harmonics + mean, not square
		_, _, err := pack.Matrices(make([]float64, n), mapper)
		assert.ErrorIs(t, err, pack.ErrBadLength, "length %d", n)
	}
}

// TestMatrices_MapperMismatch: a mapper sized for a different expansion
// must be reported, not trusted.
func TestMatrices_MapperMismatch(t *testing.T) {
	small, err := sh.NewLinearMapper(1)
	require.NoError(t, err)

	// 3 degrees of coefficients, but the mapper only knows degrees 0..1.
	_, _, err = pack.Matrices(make([]float64, 10), small)
	assert.ErrorIs(t, err, sh.ErrBadDegree)
}
