package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData returns a trivially separable one-feature problem:
// negatives cluster around -2, positives around +2.
func separableData() ([][]float64, []int) {
	x := [][]float64{
		{-2.1}, {-1.9}, {-2.3}, {-1.7}, {-2.0},
		{2.1}, {1.9}, {2.3}, {1.7}, {2.0},
	}
	y := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	return x, y
}

func TestTrainLogitSeparable(t *testing.T) {
	x, y := separableData()
	m, err := TrainLogit(x, y, DefaultTrainOptions())
	require.NoError(t, err)

	for i, row := range x {
		assert.Equal(t, y[i], m.Predict(row), "row %d", i)
	}
}

func TestTrainLogitDeterministic(t *testing.T) {
	x, y := separableData()
	a, err := TrainLogit(x, y, DefaultTrainOptions())
	require.NoError(t, err)
	b, err := TrainLogit(x, y, DefaultTrainOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestTrainLogitInputValidation(t *testing.T) {
	_, err := TrainLogit(nil, nil, DefaultTrainOptions())
	assert.Error(t, err)

	_, err = TrainLogit([][]float64{{1}}, []int{0, 1}, DefaultTrainOptions())
	assert.Error(t, err)

	_, err = TrainLogit([][]float64{{1, 2}, {1}}, []int{0, 1}, DefaultTrainOptions())
	assert.Error(t, err)
}

func TestPredictProba(t *testing.T) {
	m := &Logit{Weights: []float64{1.5}, Bias: 0}

	proba, err := m.PredictProba([]float64{0})
	require.NoError(t, err)
	require.Len(t, proba, 2)
	assert.InDelta(t, 0.5, proba[0], 1e-9)
	assert.InDelta(t, 0.5, proba[1], 1e-9)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)

	proba, err = m.PredictProba([]float64{10})
	require.NoError(t, err)
	assert.Greater(t, proba[1], 0.99)
	assert.GreaterOrEqual(t, proba[1], 0.0)
	assert.LessOrEqual(t, proba[1], 1.0)

	_, err = m.PredictProba([]float64{1, 2})
	assert.Error(t, err, "width mismatch must be rejected")
}

func TestLinearAttributor(t *testing.T) {
	m := &Logit{Weights: []float64{2, -1, 0.5}, Bias: 0.1}

	contrib, err := NewLinearAttributor().Attribute(m, []float64{1, 3, -2})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -3, -1}, contrib)
}

func TestLinearAttributorRejectsUnknownEstimator(t *testing.T) {
	_, err := NewLinearAttributor().Attribute(stubEstimator{}, []float64{1})
	assert.ErrorIs(t, err, ErrUnsupportedEstimator)
}

type stubEstimator struct{}

func (stubEstimator) Predict(row []float64) int                   { return 0 }
func (stubEstimator) PredictProba(row []float64) ([]float64, error) { return []float64{1, 0}, nil }
