package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/inferloop/pricecast/pkg/errors"
)

// Normalizer applies global z-score scaling to a price series. One
// mean/stddev pair is computed over the whole series at fit time and is
// immutable afterwards.
type Normalizer struct {
	mean   float64
	stddev float64
	fitted bool
}

// NewNormalizer creates an unfitted normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// FitTransform computes the scaling statistics over the full input and
// returns the normalized series (x - mean) / stddev. A zero-variance
// series falls back to stddev = 1 so the transform degenerates to a
// plain mean shift instead of producing non-finite values.
func (n *Normalizer) FitTransform(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, errors.NewDatasetError(errors.CodeEmptySeries, "cannot fit normalizer on empty series")
	}

	n.mean = stat.Mean(values, nil)
	n.stddev = math.Sqrt(stat.PopVariance(values, nil))
	if n.stddev == 0 {
		n.stddev = 1
	}
	n.fitted = true

	normalized := make([]float64, len(values))
	for i, v := range values {
		normalized[i] = (v - n.mean) / n.stddev
	}
	return normalized, nil
}

// InverseTransform maps normalized values back to the original scale.
// Calling it before FitTransform is invalid.
func (n *Normalizer) InverseTransform(values []float64) ([]float64, error) {
	if !n.fitted {
		return nil, errors.WrapError(errors.ErrUnfittedState, errors.ErrorTypeDataset,
			errors.CodeUnfittedState, "inverse transform requires a fitted normalizer")
	}

	original := make([]float64, len(values))
	for i, v := range values {
		original[i] = v*n.stddev + n.mean
	}
	return original, nil
}

// InverseValue maps a single normalized value back to the original scale.
func (n *Normalizer) InverseValue(value float64) (float64, error) {
	out, err := n.InverseTransform([]float64{value})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Stats returns the fitted mean and standard deviation.
func (n *Normalizer) Stats() (mean, stddev float64, fitted bool) {
	return n.mean, n.stddev, n.fitted
}
