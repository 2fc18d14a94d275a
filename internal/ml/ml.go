// Package ml provides the model capabilities the scoring pipeline
// consumes as opaque interfaces: a binary classifier with probability
// output, a feature scaler, per-feature attribution, and evaluation
// metrics. The serving and retraining code depends only on the
// interfaces; the gradient-trained classifier here is the default
// implementation.
package ml

// Estimator is a trained binary classifier.
type Estimator interface {
	// Predict returns the predicted class label (0 or 1) for one encoded row.
	Predict(row []float64) int
	// PredictProba returns the class probability output for one encoded
	// row. Implementations may return two columns [P(0), P(1)] or a
	// single column [P(1)].
	PredictProba(row []float64) ([]float64, error)
}

// Attributor computes per-feature contributions for a single prediction.
type Attributor interface {
	// Attribute returns one contribution value per input column.
	Attribute(est Estimator, row []float64) ([]float64, error)
}
