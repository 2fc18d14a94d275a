package model

import "time"

// Metrics is the evaluation snapshot computed on the held-out split of a
// retraining run and carried on the manifest entry for that version.
type Metrics struct {
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	AUC          float64 `json:"auc"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// ModelVersion is one entry in the artifact manifest. The manifest is
// append-only and totally ordered by creation time; an entry is never
// mutated or deleted after it is written. Artifact paths are stored
// relative to the artifact root unless absolute.
type ModelVersion struct {
	CreatedAt     time.Time `json:"created_at"`
	Version       string    `json:"version"`
	EstimatorPath string    `json:"estimator_path"`
	ScalerPath    string    `json:"scaler_path"`
	ColumnsPath   string    `json:"columns_path"`
	StatsPath     string    `json:"stats_path,omitempty"`
	ModesPath     string    `json:"modes_path,omitempty"`
	Provenance    string    `json:"provenance"`
	Metrics       Metrics   `json:"metrics"`
}

// FeatureStats is the baseline statistic for one numeric field, computed
// from a training corpus and used unchanged by drift detection until the
// next retraining cycle. Median additionally feeds imputation.
type FeatureStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

// Readiness is the derived precondition snapshot for a retraining run.
type Readiness struct {
	Ready            bool    `json:"ready"`
	TotalRecords     int     `json:"total_records"`
	FeedbackCount    int     `json:"feedback_count"`
	FeedbackRatio    float64 `json:"feedback_ratio"`
	MinSamples       int     `json:"min_samples"`
	MinFeedbackRatio float64 `json:"min_feedback_ratio"`
	SamplesNeeded    int     `json:"samples_needed"`
	FeedbackNeeded   int     `json:"feedback_needed"`
}
