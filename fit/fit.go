// Package fit estimates real spherical-harmonic coefficients from
// scattered samples with an adaptive regularized fixed-point iteration.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/solter/sphere-interp/scale"
	"github.com/solter/sphere-interp/sh"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

var ErrShapeMismatch = errors.New("fit: basis columns and sample length differ")
var ErrBadBlocks = errors.New("fit: degree blocks do not cover the basis rows")
var ErrDegenerate = errors.New("fit: basis projects the samples to zero")
var ErrNoConvergence = errors.New("fit: iteration budget exhausted before convergence")

// Defaults used when the corresponding Options field is unset or invalid.
const (
	DefaultContraction = 2.0
	DefaultMaxIter     = 1000
)

// Options configures the regularized fit.
//
// Fields:
//   - Tol         — convergence threshold on the iterate-to-iterate
//     distance. Non-positive values select 1e-6 times the basis row count.
//   - Contraction — factor the regularization strength is divided by when
//     a step fails to shrink that distance. Values not greater than 1
//     fall back to DefaultContraction.
//   - MaxIter     — budget of outer iterations before the fit gives up
//     with ErrNoConvergence. Non-positive values select DefaultMaxIter.
//   - Verbose     — print one progress line per accepted iteration.
type Options struct {
	Tol         float64
	Contraction float64
	MaxIter     int
	Verbose     bool
}

func DefaultOptions() Options {
	return Options{
		Contraction: DefaultContraction,
		MaxIter:     DefaultMaxIter,
	}
}

// Result of a regularized fit.
//
// Coeffs has one entry per basis row plus one: the sample mean in slot 0,
// harmonic coefficients in slots 1..B in basis row order, all in the units
// of the input samples. Lambda is the regularization strength the
// iteration settled on; it only ever decreases from its initial estimate.
type Result struct {
	Coeffs     []float64
	Lambda     float64
	Iterations int
}

// Fit estimates harmonic coefficients for samples observed at the point
// locations encoded in basis (one row per basis function, one column per
// sample). blocks gives the per-degree row ranges of the basis; the
// degree-l rows are damped by l(l+1) so rough components must earn their
// amplitude. samples is left untouched; the engine works on a private
// copy.
func Fit(basis *mat.Dense, samples []float64, blocks []sh.Block, opts *Options) (*Result, error) {
	var o Options
	if opts != nil {
		o = *opts
	} else {
		o = DefaultOptions()
	}

	nRows, nCols := basis.Dims()
	if len(samples) != nCols {
		return nil, ErrShapeMismatch
	}
	if err := checkBlocks(blocks, nRows); err != nil {
		return nil, err
	}

	tol := o.Tol
	if tol <= 0 {
		tol = 1e-6 * float64(nRows)
	}
	contraction := o.Contraction
	if contraction <= 1 {
		contraction = DefaultContraction
	}
	maxIter := o.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	fs := make([]float64, nCols)
	copy(fs, samples)
	rec, err := scale.Normalize(fs)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	// The mean lives in coefficient slot 0; the harmonics only have to
	// explain the residual around it.
	for i := range fs {
		fs[i] -= rec.Mean / rec.Factor
	}

	rawM := basis.RawMatrix()
	damped := dampedCopy(rawM, blocks)

	f := blas64.Vector{N: nCols, Inc: 1, Data: fs}
	mf := blas64.Vector{N: nRows, Inc: 1, Data: make([]float64, nRows)}

	// lambda = sum(f^2) / sum((M f)^2)
	blas64.Gemv(blas.NoTrans, 1, rawM, f, 0, mf)
	num := blas64.Dot(f, f)
	den := blas64.Dot(mf, mf)
	if num == 0 {
		// Nothing left once the mean is accounted for: the fit collapses
		// to the constant mean and lambda to zero.
		return &Result{Coeffs: restore(make([]float64, nRows), rec), Lambda: 0}, nil
	}
	if den == 0 {
		return nil, ErrDegenerate
	}
	lambda := num / den

	// g = D f, reused every iteration.
	g := blas64.Vector{N: nRows, Inc: 1, Data: make([]float64, nRows)}
	blas64.Gemv(blas.NoTrans, 1, damped, f, 0, g)

	c := blas64.Vector{N: nRows, Inc: 1, Data: make([]float64, nRows)}
	step := blas64.Vector{N: nRows, Inc: 1, Data: make([]float64, nRows)}
	tmp := blas64.Vector{N: nCols, Inc: 1, Data: make([]float64, nCols)}

	prev := math.Inf(1)
	for it := 0; it < maxIter; it++ {
		// step = g - D M^T c,  proposal = c + 2*lambda*step
		blas64.Gemv(blas.Trans, 1, rawM, c, 0, tmp)
		blas64.Copy(g, step)
		blas64.Gemv(blas.NoTrans, -1, damped, tmp, 1, step)
		norm := blas64.Nrm2(step)

		// Shrink lambda until the proposal moves less than the previous
		// accepted step did.
		delta := 2 * lambda * norm
		for delta >= prev {
			lambda /= contraction
			delta = 2 * lambda * norm
		}
		blas64.Axpy(2*lambda, step, c)
		prev = delta
		if o.Verbose {
			fmt.Printf("Iteration %v, delta: %.8f, lambda: %.6g\n", it+1, delta, lambda)
		}
		if delta < tol {
			return &Result{
				Coeffs:     restore(c.Data, rec),
				Lambda:     lambda,
				Iterations: it + 1,
			}, nil
		}
	}
	return nil, ErrNoConvergence
}

// checkBlocks verifies the degree blocks tile the basis rows exactly, in
// ascending degree order.
func checkBlocks(blocks []sh.Block, rows int) error {
	if len(blocks) == 0 {
		return ErrBadBlocks
	}
	next := 0
	degree := -1
	for _, b := range blocks {
		if b.Lo != next || b.Hi <= b.Lo || b.Degree <= degree {
			return ErrBadBlocks
		}
		next = b.Hi
		degree = b.Degree
	}
	if next != rows {
		return ErrBadBlocks
	}
	return nil
}

// dampedCopy builds the row-scaled basis copy: every degree-l block is
// multiplied by l(l+1).
func dampedCopy(m blas64.General, blocks []sh.Block) blas64.General {
	data := make([]float64, m.Rows*m.Cols)
	for _, b := range blocks {
		w := float64(b.Degree * (b.Degree + 1))
		for i := b.Lo; i < b.Hi; i++ {
			row := m.Data[i*m.Stride : i*m.Stride+m.Cols]
			out := data[i*m.Cols : (i+1)*m.Cols]
			for j, v := range row {
				out[j] = w * v
			}
		}
	}
	return blas64.General{Rows: m.Rows, Cols: m.Cols, Stride: m.Cols, Data: data}
}

// restore scales coefficients back to physical units and prepends the
// sample mean.
func restore(coeffs []float64, rec scale.Record) []float64 {
	out := make([]float64, len(coeffs)+1)
	out[0] = rec.Mean
	for i, v := range coeffs {
		out[i+1] = v * rec.Factor
	}
	return out
}
