// Package scale normalizes sample vectors to a bounded range before
// fitting and records how to restore physical units afterwards.
package scale

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrEmpty = errors.New("scale: empty sample vector")
var ErrZero = errors.New("scale: all samples are zero, scale factor undefined")

// Record holds the normalization applied to a sample vector.
type Record struct {
	Mean   float64 // arithmetic mean of the original samples
	Factor float64 // max absolute value of the original samples
}

// Normalize divides samples in place by the largest absolute value so
// every entry lands in [-1, 1], and reports the mean and the divisor.
// The mean is reported only; it is not subtracted from the samples.
func Normalize(samples []float64) (Record, error) {
	if len(samples) == 0 {
		return Record{}, ErrEmpty
	}
	mean := floats.Sum(samples) / float64(len(samples))
	factor := floats.Norm(samples, math.Inf(1))
	if factor == 0 {
		return Record{}, ErrZero
	}
	floats.Scale(1/factor, samples)
	return Record{Mean: mean, Factor: factor}, nil
}

// Restore multiplies samples in place by the recorded factor, undoing
// Normalize.
func (r Record) Restore(samples []float64) {
	floats.Scale(r.Factor, samples)
}
