// Package retrain implements the feedback-driven retraining cycle: the
// readiness gate, feature re-derivation over the outcome store, model
// fitting and evaluation, artifact persistence and the single manifest
// append that makes a new version available for promotion.
package retrain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/dataset"
	"github.com/oakmont-ai/scorecard/internal/feature"
	"github.com/oakmont-ai/scorecard/internal/ml"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/service"
)

// Options configures one retraining run.
type Options struct {
	// MinSamples is the minimum total record count required (default 100).
	MinSamples int
	// MinFeedbackRatio is the minimum share of records carrying an actual
	// outcome (default 0.1).
	MinFeedbackRatio float64
	// TestFraction is the held-out share for evaluation (default 0.2).
	TestFraction float64
	// ReferenceCSV optionally unions an original training corpus with the
	// feedback-labeled records, for stability on small feedback sets.
	ReferenceCSV string
	// Provenance tags the resulting manifest entry.
	Provenance string
	// ShowProgress renders a progress bar during extraction and fitting.
	ShowProgress bool
}

func (o *Options) applyDefaults() {
	if o.MinSamples <= 0 {
		o.MinSamples = 100
	}
	if o.MinFeedbackRatio <= 0 {
		o.MinFeedbackRatio = 0.1
	}
	if o.TestFraction <= 0 {
		o.TestFraction = 0.2
	}
	if o.Provenance == "" {
		o.Provenance = "feedback_retraining"
	}
}

// Result reports the outcome of a run. Status is "success" or
// "not_ready"; a not-ready run performs no mutation at all.
type Result struct {
	Timestamp    time.Time       `json:"timestamp"`
	Status       string          `json:"status"`
	Version      string          `json:"version,omitempty"`
	Readiness    model.Readiness `json:"readiness"`
	Metrics      model.Metrics   `json:"metrics"`
	FeatureCount int             `json:"feature_count"`
}

// Retrainer runs retraining cycles against the outcome store and version
// ledger. It never touches a live scorer bundle; promotion happens only
// when a caller explicitly reloads.
type Retrainer struct {
	storage  service.Storage
	versions service.VersionStore
	mapper   *feature.Mapper
}

// New creates a retrainer.
func New(storage service.Storage, versions service.VersionStore) *Retrainer {
	return &Retrainer{
		storage:  storage,
		versions: versions,
		mapper:   feature.NewMapper(),
	}
}

// Readiness derives the retraining precondition snapshot.
func (r *Retrainer) Readiness(ctx context.Context, minSamples int, minFeedbackRatio float64) (model.Readiness, error) {
	if minSamples <= 0 {
		minSamples = 100
	}
	if minFeedbackRatio <= 0 {
		minFeedbackRatio = 0.1
	}

	total, err := r.storage.CountPredictions(ctx)
	if err != nil {
		return model.Readiness{}, fmt.Errorf("failed to count predictions: %w", err)
	}
	withFeedback, err := r.storage.CountWithFeedback(ctx)
	if err != nil {
		return model.Readiness{}, fmt.Errorf("failed to count feedback: %w", err)
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(withFeedback) / float64(total)
	}

	readiness := model.Readiness{
		TotalRecords:     total,
		FeedbackCount:    withFeedback,
		FeedbackRatio:    ratio,
		MinSamples:       minSamples,
		MinFeedbackRatio: minFeedbackRatio,
		Ready:            total >= minSamples && ratio >= minFeedbackRatio,
	}
	if needed := minSamples - total; needed > 0 {
		readiness.SamplesNeeded = needed
	}
	if needed := int(float64(minSamples)*minFeedbackRatio) - withFeedback; needed > 0 {
		readiness.FeedbackNeeded = needed
	}
	return readiness, nil
}

// Run executes one retraining cycle. When the readiness gate fails it
// returns a not-ready result and performs no mutation: no partial
// artifacts, no manifest entry. Cancellation before the final append
// likewise leaves the version ledger unchanged.
func (r *Retrainer) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()
	result := &Result{Timestamp: time.Now().UTC()}

	readiness, err := r.Readiness(ctx, opts.MinSamples, opts.MinFeedbackRatio)
	if err != nil {
		return nil, err
	}
	result.Readiness = readiness

	if !readiness.Ready {
		result.Status = "not_ready"
		slog.Warn("Retraining refused, readiness gate not met",
			"total_records", readiness.TotalRecords,
			"feedback_count", readiness.FeedbackCount,
			"samples_needed", readiness.SamplesNeeded,
			"feedback_needed", readiness.FeedbackNeeded)
		return result, nil
	}

	records, err := r.extract(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no feedback-labeled records", common.ErrInsufficientData)
	}

	columns := discoverColumns(records)
	x, y := encodeMatrix(records, columns, r.mapper)
	result.FeatureCount = len(columns)

	slog.Info("Encoded training matrix",
		"samples", len(x),
		"columns", len(columns))

	trainX, trainY, testX, testY := ml.StratifiedSplit(x, y, opts.TestFraction)
	if len(trainX) == 0 || len(testX) == 0 {
		return nil, fmt.Errorf("%w: split produced an empty side (%d train, %d test)",
			common.ErrInsufficientData, len(trainX), len(testX))
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(3, "retraining")
	}

	scaler := ml.FitScaler(trainX)
	advance(bar)

	est, err := ml.TrainLogit(scaler.TransformAll(trainX), trainY, ml.DefaultTrainOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to fit estimator: %w", err)
	}
	advance(bar)

	metrics := r.evaluate(est, scaler, testX, testY)
	metrics.TrainSamples = len(trainX)
	metrics.TestSamples = len(testX)
	result.Metrics = metrics
	advance(bar)

	// All mutation happens after the expensive work, and the manifest
	// append is last: a cancelled or failed run leaves the ledger intact.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version, err := r.versions.NextVersionID()
	if err != nil {
		return nil, err
	}

	entry, err := r.writeArtifacts(version, est, scaler, columns, computeStats(records), categoricalModes(records), opts.Provenance)
	if err != nil {
		return nil, err
	}
	entry.Metrics = metrics

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.versions.Append(*entry); err != nil {
		return nil, fmt.Errorf("failed to append manifest entry: %w", err)
	}

	result.Status = "success"
	result.Version = version
	slog.Info("Retraining complete",
		"version", version,
		"accuracy", metrics.Accuracy,
		"auc", metrics.AUC,
		"train_samples", metrics.TrainSamples,
		"test_samples", metrics.TestSamples)
	return result, nil
}

// ExportTrainingData writes the feedback-labeled records as a CSV corpus.
func (r *Retrainer) ExportTrainingData(ctx context.Context, path string) (int, error) {
	records, err := r.storage.ListPredictions(ctx, service.PredictionFilter{OnlyWithFeedback: true})
	if err != nil {
		return 0, fmt.Errorf("failed to extract labeled records: %w", err)
	}
	if err := dataset.WriteCSVFile(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *Retrainer) extract(ctx context.Context, opts Options) ([]model.PredictionRecord, error) {
	records, err := r.storage.ListPredictions(ctx, service.PredictionFilter{OnlyWithFeedback: true})
	if err != nil {
		return nil, fmt.Errorf("failed to extract labeled records: %w", err)
	}

	if opts.ReferenceCSV != "" {
		reference, err := dataset.ReadCSVFile(opts.ReferenceCSV, "")
		if err != nil {
			return nil, fmt.Errorf("failed to read reference corpus: %w", err)
		}
		labeled := 0
		for i := range reference {
			if reference[i].ActualOutcome != nil {
				records = append(records, reference[i])
				labeled++
			}
		}
		slog.Info("Unioned reference corpus",
			"path", opts.ReferenceCSV,
			"labeled_rows", labeled)
	}

	return records, nil
}

func (r *Retrainer) evaluate(est ml.Estimator, scaler *ml.Scaler, testX [][]float64, testY []int) model.Metrics {
	predicted := make([]int, len(testX))
	probabilities := make([]float64, len(testX))

	for i, row := range testX {
		scaled := scaler.Transform(row)
		predicted[i] = est.Predict(scaled)
		proba, err := est.PredictProba(scaled)
		switch {
		case err != nil || len(proba) == 0:
			probabilities[i] = float64(predicted[i])
		case len(proba) == 2:
			probabilities[i] = proba[1]
		default:
			probabilities[i] = proba[0]
		}
	}

	m := ml.Evaluate(predicted, probabilities, testY)
	return model.Metrics{
		Accuracy:  m.Accuracy,
		Precision: m.Precision,
		Recall:    m.Recall,
		F1:        m.F1,
		AUC:       m.AUC,
	}
}

// writeArtifacts persists the bundle documents under a per-version
// directory and returns the manifest entry with root-relative paths.
func (r *Retrainer) writeArtifacts(version string, est *ml.Logit, scaler *ml.Scaler, columns []string, stats map[string]model.FeatureStats, modes map[string]string, provenance string) (*model.ModelVersion, error) {
	dir := filepath.Join(r.versions.Root(), version)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	artifacts := map[string]any{
		"estimator.json":          est,
		"scaler.json":             scaler,
		"columns.json":            columns,
		"feature_statistics.json": stats,
		"categorical_modes.json":  modes,
	}
	for name, v := range artifacts {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o640); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return &model.ModelVersion{
		Version:       version,
		CreatedAt:     time.Now().UTC(),
		EstimatorPath: filepath.Join(version, "estimator.json"),
		ScalerPath:    filepath.Join(version, "scaler.json"),
		ColumnsPath:   filepath.Join(version, "columns.json"),
		StatsPath:     filepath.Join(version, "feature_statistics.json"),
		ModesPath:     filepath.Join(version, "categorical_modes.json"),
		Provenance:    provenance,
	}, nil
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
