// Package lstsq computes an unregularized truncated-SVD least-squares fit
// of a spherical-harmonic basis to scattered samples. It validates the
// adaptive engine in package fit and covers ill-conditioned cases where
// adaptive iteration is undesirable.
package lstsq

import (
	"errors"
	"fmt"
	"math"

	"github.com/solter/sphere-interp/scale"
	"github.com/solter/sphere-interp/sh"
	"gonum.org/v1/gonum/mat"
)

var ErrBadBasis = errors.New("lstsq: basis is missing or not a truncated expansion")
var ErrBadSamples = errors.New("lstsq: samples unusable for this basis")
var ErrBadCutoff = errors.New("lstsq: negative singular-value cutoff")
var ErrNoConvergence = errors.New("lstsq: singular-value decomposition failed to converge")

// Result of a reference least-squares solve.
//
// Status follows the LAPACK convention: 0 on success, -k when argument k
// was illegal (1 basis, 2 samples, 3 cutoff), positive when the SVD
// failed to converge. Coeffs holds the sample mean in slot 0 and the
// harmonic coefficients in slots 1..B, in physical units.
type Result struct {
	Coeffs         []float64
	SingularValues []float64
	Rank           int
	Status         int
}

// Solve computes the coefficient vector minimizing the Euclidean residual
// of the basis fit, via a thin SVD with a relative singular-value cutoff.
// A cutoff of zero selects the machine-precision default eps*max(B, N).
// Singular values below cutoff times the largest one are treated as zero;
// Rank counts the survivors. samples is not modified.
func Solve(basis *mat.Dense, samples []float64, cutoff float64) (*Result, error) {
	if basis == nil {
		return &Result{Status: -1}, ErrBadBasis
	}
	nRows, nCols := basis.Dims()
	if _, err := sh.BlocksForRows(nRows); err != nil {
		return &Result{Status: -1}, fmt.Errorf("%w: %w", ErrBadBasis, err)
	}
	if len(samples) != nCols {
		return &Result{Status: -2}, ErrBadSamples
	}
	if cutoff < 0 {
		return &Result{Status: -3}, ErrBadCutoff
	}
	if cutoff == 0 {
		cutoff = machEps * float64(max(nRows, nCols))
	}

	fs := make([]float64, nCols)
	copy(fs, samples)
	rec, err := scale.Normalize(fs)
	if err != nil {
		return &Result{Status: -2}, fmt.Errorf("%w: %w", ErrBadSamples, err)
	}
	for i := range fs {
		fs[i] -= rec.Mean / rec.Factor
	}

	// The design matrix has one row per sample, so the least-squares
	// problem is basis^T c = f.
	var svd mat.SVD
	if ok := svd.Factorize(basis.T(), mat.SVDThin); !ok {
		return &Result{Status: 1}, ErrNoConvergence
	}
	s := svd.Values(nil)

	rank := 0
	for _, v := range s {
		if v > cutoff*s[0] {
			rank++
		}
	}

	// c = V S^+ U^T f, truncated at rank.
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	f := mat.NewVecDense(nCols, fs)
	coeffs := make([]float64, nRows)
	for k := 0; k < rank; k++ {
		w := mat.Dot(u.ColView(k), f) / s[k]
		for j := 0; j < nRows; j++ {
			coeffs[j] += w * v.At(j, k)
		}
	}

	out := make([]float64, nRows+1)
	out[0] = rec.Mean
	for i, c := range coeffs {
		out[i+1] = c * rec.Factor
	}
	return &Result{
		Coeffs:         out,
		SingularValues: s,
		Rank:           rank,
	}, nil
}

var machEps = math.Nextafter(1, 2) - 1
