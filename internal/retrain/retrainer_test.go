package retrain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-ai/scorecard/internal/manifest"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/storage"
)

func newTestRetrainer(t *testing.T) (*Retrainer, *storage.SQLiteStorage, *manifest.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	versions, err := manifest.NewStore(filepath.Join(dir, "artifacts", "manifest.json"), filepath.Join(dir, "artifacts"))
	require.NoError(t, err)

	return New(store, versions), store, versions
}

// seedRecords stores n prediction records, attaching alternating 0/1
// outcomes to the first labeled of them. Labeled rows get class-separable
// features so a fit is meaningful.
func seedRecords(t *testing.T, store *storage.SQLiteStorage, n, labeled int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		vec := model.NewFeatureVector()
		vec.Numeric["person_age"] = 30 + float64(i%20)
		vec.Numeric["person_income"] = 50000
		if i%2 == 0 {
			vec.Numeric["loan_percent_income"] = 0.1
			vec.Categorical["loan_grade"] = "A"
		} else {
			vec.Numeric["loan_percent_income"] = 0.6
			vec.Categorical["loan_grade"] = "D"
		}

		record := model.PredictionRecord{
			ID:          fmt.Sprintf("seed-%03d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
			Category:    model.RiskLow,
			Probability: 0.1,
			Features:    vec,
		}
		require.NoError(t, store.SavePrediction(ctx, &record))

		if i < labeled {
			require.NoError(t, store.AttachFeedback(ctx, record.ID, i%2))
		}
	}
}

func TestReadinessNotReady(t *testing.T) {
	r, store, _ := newTestRetrainer(t)
	seedRecords(t, store, 40, 1)

	readiness, err := r.Readiness(context.Background(), 100, 0.1)
	require.NoError(t, err)

	assert.False(t, readiness.Ready)
	assert.Equal(t, 40, readiness.TotalRecords)
	assert.Equal(t, 1, readiness.FeedbackCount)
	assert.Equal(t, 60, readiness.SamplesNeeded)
	assert.Equal(t, 9, readiness.FeedbackNeeded)
}

func TestReadinessReady(t *testing.T) {
	r, store, _ := newTestRetrainer(t)
	seedRecords(t, store, 40, 10)

	readiness, err := r.Readiness(context.Background(), 30, 0.1)
	require.NoError(t, err)

	assert.True(t, readiness.Ready)
	assert.Equal(t, 0, readiness.SamplesNeeded)
	assert.Equal(t, 0, readiness.FeedbackNeeded)
	assert.InDelta(t, 0.25, readiness.FeedbackRatio, 1e-9)
}

func TestReadinessEmptyStore(t *testing.T) {
	r, _, _ := newTestRetrainer(t)

	readiness, err := r.Readiness(context.Background(), 100, 0.1)
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.Equal(t, 0.0, readiness.FeedbackRatio)
	assert.Equal(t, 100, readiness.SamplesNeeded)
}

func TestRunNotReadyPerformsNoMutation(t *testing.T) {
	r, store, versions := newTestRetrainer(t)
	seedRecords(t, store, 10, 2)

	result, err := r.Run(context.Background(), Options{MinSamples: 100})
	require.NoError(t, err)
	assert.Equal(t, "not_ready", result.Status)
	assert.Empty(t, result.Version)

	entries, err := versions.All()
	require.NoError(t, err)
	assert.Empty(t, entries, "a refused run must not touch the ledger")
}

func TestRunProducesOneVersion(t *testing.T) {
	r, store, versions := newTestRetrainer(t)
	seedRecords(t, store, 50, 50)

	result, err := r.Run(context.Background(), Options{
		MinSamples:       50,
		MinFeedbackRatio: 0.1,
		TestFraction:     0.2,
	})
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)
	require.NotEmpty(t, result.Version)
	assert.Greater(t, result.FeatureCount, 0)

	for name, m := range map[string]float64{
		"accuracy":  result.Metrics.Accuracy,
		"precision": result.Metrics.Precision,
		"recall":    result.Metrics.Recall,
		"f1":        result.Metrics.F1,
		"auc":       result.Metrics.AUC,
	} {
		assert.GreaterOrEqual(t, m, 0.0, name)
		assert.LessOrEqual(t, m, 1.0, name)
	}
	assert.Equal(t, 40, result.Metrics.TrainSamples)
	assert.Equal(t, 10, result.Metrics.TestSamples)

	entries, err := versions.All()
	require.NoError(t, err)
	require.Len(t, entries, 1, "one run appends exactly one entry")

	entry := entries[0]
	assert.Equal(t, result.Version, entry.Version)
	assert.Equal(t, "feedback_retraining", entry.Provenance)
	assert.FileExists(t, versions.ResolvePath(entry.EstimatorPath))
	assert.FileExists(t, versions.ResolvePath(entry.ScalerPath))
	assert.FileExists(t, versions.ResolvePath(entry.ColumnsPath))
	assert.FileExists(t, versions.ResolvePath(entry.StatsPath))
	assert.FileExists(t, versions.ResolvePath(entry.ModesPath))
}

func TestRepeatedRunsAppendRepeatedEntries(t *testing.T) {
	r, store, versions := newTestRetrainer(t)
	seedRecords(t, store, 50, 50)

	opts := Options{MinSamples: 50, MinFeedbackRatio: 0.1}
	var last string
	for i := 0; i < 3; i++ {
		result, err := r.Run(context.Background(), opts)
		require.NoError(t, err)
		require.Equal(t, "success", result.Status)
		last = result.Version
	}

	entries, err := versions.All()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	current, err := versions.Current()
	require.NoError(t, err)
	assert.Equal(t, last, current.Version, "the newest version is current")
}

func TestRunCancelledBeforeAppend(t *testing.T) {
	r, store, versions := newTestRetrainer(t)
	seedRecords(t, store, 50, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Options{MinSamples: 50, MinFeedbackRatio: 0.1})
	require.Error(t, err)

	entries, err := versions.All()
	require.NoError(t, err)
	assert.Empty(t, entries, "a cancelled run leaves the ledger unchanged")
}

func TestRunWithReferenceCorpus(t *testing.T) {
	r, store, versions := newTestRetrainer(t)
	seedRecords(t, store, 30, 30)

	reference := filepath.Join(t.TempDir(), "reference.csv")
	var rows string
	rows = "person_age,loan_percent_income,loan_grade,loan_status\n"
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			rows += "35,0.1,A,0\n"
		} else {
			rows += "35,0.6,D,1\n"
		}
	}
	require.NoError(t, os.WriteFile(reference, []byte(rows), 0o600))

	result, err := r.Run(context.Background(), Options{
		MinSamples:       30,
		MinFeedbackRatio: 0.1,
		ReferenceCSV:     reference,
	})
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)
	assert.Equal(t, 60, result.Metrics.TrainSamples+result.Metrics.TestSamples,
		"reference rows union with feedback rows")

	entries, err := versions.All()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportTrainingData(t *testing.T) {
	r, store, _ := newTestRetrainer(t)
	seedRecords(t, store, 20, 8)

	path := filepath.Join(t.TempDir(), "export.csv")
	n, err := r.ExportTrainingData(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.FileExists(t, path)
}
