package ml

import (
	"errors"
	"fmt"
	"math"
)

// Logit is a logistic classifier trained by full-batch gradient descent.
// It is deterministic for a given training matrix, which keeps retraining
// runs and their evaluation metrics reproducible.
type Logit struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainOptions configures a Logit fit.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultTrainOptions returns the fitting defaults.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       300,
		LearningRate: 0.1,
		L2:           1e-4,
	}
}

// TrainLogit fits a logistic classifier on the given matrix. Rows of x
// must all share the same width; y holds 0/1 labels.
func TrainLogit(x [][]float64, y []int, opts TrainOptions) (*Logit, error) {
	if len(x) == 0 {
		return nil, errors.New("empty training matrix")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("matrix has %d rows but %d labels", len(x), len(y))
	}
	if opts.Epochs <= 0 {
		opts = DefaultTrainOptions()
	}

	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d", i, len(row), width)
		}
	}

	m := &Logit{Weights: make([]float64, width)}
	n := float64(len(x))
	grad := make([]float64, width)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64

		for i, row := range x {
			diff := sigmoid(m.raw(row)) - float64(y[i])
			for j, v := range row {
				grad[j] += diff * v
			}
			gradBias += diff
		}

		for j := range m.Weights {
			m.Weights[j] -= opts.LearningRate * (grad[j]/n + opts.L2*m.Weights[j])
		}
		m.Bias -= opts.LearningRate * gradBias / n
	}

	return m, nil
}

// Predict returns the predicted class label for one row.
func (m *Logit) Predict(row []float64) int {
	if sigmoid(m.raw(row)) > 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the two-column probability output [P(0), P(1)].
func (m *Logit) PredictProba(row []float64) ([]float64, error) {
	if len(row) != len(m.Weights) {
		return nil, fmt.Errorf("row has %d columns, model expects %d", len(row), len(m.Weights))
	}
	p := sigmoid(m.raw(row))
	return []float64{1 - p, p}, nil
}

func (m *Logit) raw(row []float64) float64 {
	z := m.Bias
	limit := len(row)
	if len(m.Weights) < limit {
		limit = len(m.Weights)
	}
	for j := 0; j < limit; j++ {
		z += m.Weights[j] * row[j]
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
