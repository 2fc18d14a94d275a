package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-ai/scorecard/internal/engine"
	"github.com/oakmont-ai/scorecard/internal/manifest"
	"github.com/oakmont-ai/scorecard/internal/ml"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/retrain"
	"github.com/oakmont-ai/scorecard/internal/scorer"
	"github.com/oakmont-ai/scorecard/internal/storage"
)

type testEnv struct {
	server   *Server
	handler  http.Handler
	storage  *storage.SQLiteStorage
	versions *manifest.Store
	scorer   *scorer.Scorer
}

// newTestEnv builds a server over a real SQLite store and manifest. When
// withBundle is true a one-version ledger is materialized and loaded.
func newTestEnv(t *testing.T, withBundle bool) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })

	versions, err := manifest.NewStore(filepath.Join(dir, "artifacts", "manifest.json"), filepath.Join(dir, "artifacts"))
	require.NoError(t, err)

	if withBundle {
		writeTestBundle(t, versions, "v1")
	}

	sc := scorer.New(versions, nil)
	if withBundle {
		require.NoError(t, sc.Load(""))
	}

	eng := engine.New(sc, nil, db)
	retrainer := retrain.New(db, versions)
	srv := New(eng, retrainer, versions, retrain.Options{MinSamples: 100, MinFeedbackRatio: 0.1})

	return &testEnv{
		server:   srv,
		handler:  srv.Handler(),
		storage:  db,
		versions: versions,
		scorer:   sc,
	}
}

func writeTestBundle(t *testing.T, store *manifest.Store, version string) {
	t.Helper()
	dir := filepath.Join(store.Root(), version)
	require.NoError(t, os.MkdirAll(dir, 0o750))

	columns := []string{
		"person_age", "person_income", "person_emp_length", "loan_amnt",
		"loan_int_rate", "loan_percent_income", "cb_person_cred_hist_length",
	}
	weights := make([]float64, len(columns))
	weights[5] = 8
	means := make([]float64, len(columns))
	means[5] = 0.25
	stds := make([]float64, len(columns))
	for i := range stds {
		stds[i] = 1
	}

	write := func(name string, v any) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	write("estimator.json", &ml.Logit{Weights: weights})
	write("scaler.json", &ml.Scaler{Means: means, Stds: stds})
	write("columns.json", columns)

	require.NoError(t, store.Append(model.ModelVersion{
		Version:       version,
		CreatedAt:     time.Now().UTC(),
		EstimatorPath: filepath.Join(version, "estimator.json"),
		ScalerPath:    filepath.Join(version, "scaler.json"),
		ColumnsPath:   filepath.Join(version, "columns.json"),
	}))
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthzDegraded(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "degraded", body["status"])
}

func TestScoreEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/v1/score", `{"person_income": 80000, "loan_amnt": 60000}`)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody[engine.ScoreResult](t, w)
	assert.Equal(t, model.RiskHigh, result.Category)
	assert.Equal(t, 1, result.Decision)
	assert.NotEmpty(t, result.RecordID)
	assert.NotEmpty(t, result.Explanation)
}

func TestScoreEndpointUnavailable(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/v1/score", `{"person_age": 30}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScoreEndpointBadBody(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/v1/score", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreBatchEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/v1/score/batch",
		`[{"person_income": 100000, "loan_amnt": 5000}, {"person_income": 80000, "loan_amnt": 60000}]`)
	require.Equal(t, http.StatusOK, w.Code)

	items := decodeBody[[]engine.BatchItem](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, model.RiskLow, items[0].Result.Category)
	assert.Equal(t, model.RiskHigh, items[1].Result.Category)
}

func TestFeedbackEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/v1/score", `{"person_income": 50000, "loan_amnt": 10000}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody[engine.ScoreResult](t, w)

	w = env.do(t, http.MethodPost, "/v1/feedback",
		fmt.Sprintf(`{"record_id": %q, "outcome": 1}`, result.RecordID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/v1/feedback", `{"record_id": "unknown", "outcome": 0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/v1/feedback", `{"record_id": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "outcome is required")
}

func TestRetrainEndpointNotReady(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/v1/retrain", "")
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody[retrain.Result](t, w)
	assert.Equal(t, "not_ready", result.Status)
}

func TestRetrainEndpointConflict(t *testing.T) {
	env := newTestEnv(t, true)

	env.server.retrainMu.Lock()
	defer env.server.retrainMu.Unlock()

	w := env.do(t, http.MethodPost, "/v1/retrain", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVersionsEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/versions", "")
	require.Equal(t, http.StatusOK, w.Code)

	entries := decodeBody[[]model.ModelVersion](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "v1", entries[0].Version)
}

func TestReadinessEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/v1/readiness", "")
	require.Equal(t, http.StatusOK, w.Code)

	readiness := decodeBody[model.Readiness](t, w)
	assert.False(t, readiness.Ready)
	assert.Equal(t, 100, readiness.MinSamples)
	assert.Equal(t, 100, readiness.SamplesNeeded)
}

func TestReloadEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	// Nothing in the ledger yet: reload degrades.
	w := env.do(t, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Publish a version, reload, and scoring comes up.
	writeTestBundle(t, env.versions, "v1")
	w = env.do(t, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
