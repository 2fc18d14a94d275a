package ml

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEstimator is returned when an attributor cannot explain
// the given estimator type.
var ErrUnsupportedEstimator = errors.New("estimator does not support attribution")

// LinearAttributor computes exact additive contributions for linear
// estimators: for a centered input, weight times the (scaled) feature
// value is the feature's contribution to the log-odds, which is the
// Shapley value of a linear model with independent features.
type LinearAttributor struct{}

// NewLinearAttributor creates the default attributor.
func NewLinearAttributor() *LinearAttributor {
	return &LinearAttributor{}
}

// Attribute returns one contribution per input column.
func (a *LinearAttributor) Attribute(est Estimator, row []float64) ([]float64, error) {
	m, ok := est.(*Logit)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedEstimator, est)
	}

	limit := len(row)
	if len(m.Weights) < limit {
		limit = len(m.Weights)
	}

	contrib := make([]float64, limit)
	for j := 0; j < limit; j++ {
		contrib[j] = m.Weights[j] * row[j]
	}
	return contrib, nil
}
