package scorer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/manifest"
	"github.com/oakmont-ai/scorecard/internal/ml"
	"github.com/oakmont-ai/scorecard/internal/model"
)

// ScoringError is a request-scoped scoring failure. It never affects
// other in-flight requests.
type ScoringError struct {
	Err   error
	Stage string
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed at %s: %v", e.Stage, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// ScoreOutcome is the result of scoring one encoded row.
type ScoreOutcome struct {
	Probability float64
	Category    model.RiskCategory
	Decision    int
}

// Scorer owns the single live bundle reference for the process. Scoring
// calls capture the reference once and run against it without
// coordination; Reload swaps the reference atomically and is serialized
// against concurrent reloads but never blocks in-flight scores.
type Scorer struct {
	store      *manifest.Store
	attributor ml.Attributor
	bundle     atomic.Pointer[Bundle]
	reloadMu   sync.Mutex
}

// New creates a scorer over the given version store. No bundle is loaded
// until Load is called.
func New(store *manifest.Store, attributor ml.Attributor) *Scorer {
	if attributor == nil {
		attributor = ml.NewLinearAttributor()
	}
	return &Scorer{store: store, attributor: attributor}
}

// Load resolves a manifest entry ("" means current) and atomically
// replaces the live bundle. It is idempotent; on failure the previously
// loaded bundle, if any, stays live.
func (s *Scorer) Load(version string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var entry *model.ModelVersion
	var err error
	if version == "" {
		entry, err = s.store.Current()
	} else {
		entry, err = s.store.Get(version)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrBundleUnavailable, err)
	}

	bundle, err := LoadBundle(s.store, entry)
	if err != nil {
		return err
	}

	s.bundle.Store(bundle)
	slog.Info("Model bundle loaded",
		"version", bundle.Version,
		"columns", len(bundle.Columns))
	return nil
}

// Bundle returns the live bundle reference, or ErrBundleUnavailable when
// nothing is loaded. Callers hold the returned reference for the whole
// request so a concurrent reload cannot tear it.
func (s *Scorer) Bundle() (*Bundle, error) {
	b := s.bundle.Load()
	if b == nil {
		return nil, common.ErrBundleUnavailable
	}
	return b, nil
}

// Available reports whether a bundle is loaded.
func (s *Scorer) Available() bool {
	return s.bundle.Load() != nil
}

// Score applies the bundle's scaler and estimator to a filled row and
// returns the default probability, risk category and binary decision.
func (s *Scorer) Score(b *Bundle, fullRow []float64) (ScoreOutcome, error) {
	if len(fullRow) != len(b.Columns) {
		return ScoreOutcome{}, &ScoringError{
			Stage: "input",
			Err:   fmt.Errorf("row has %d columns, bundle %s expects %d", len(fullRow), b.Version, len(b.Columns)),
		}
	}

	scaled := b.Scaler.Transform(fullRow)
	pred := b.Estimator.Predict(scaled)

	prob, err := extractProbability(b.Estimator, scaled, pred)
	if err != nil {
		// Degraded but non-fatal: fall back to the raw class label as a
		// probability-like value.
		slog.Warn("Probability extraction failed, using raw prediction",
			"version", b.Version, "error", err)
		prob = float64(pred)
	}

	return ScoreOutcome{
		Probability: prob,
		Category:    model.CategorizeRisk(prob),
		Decision:    pred,
	}, nil
}

// Explain returns a per-column attribution map for a filled row. If the
// attribution length disagrees with the column count the output is
// truncated to the shorter length; the mismatch is logged loudly because
// it can indicate a schema mismatch between a reloaded bundle and the
// request's encoding.
func (s *Scorer) Explain(b *Bundle, fullRow []float64) (map[string]float64, error) {
	scaled := b.Scaler.Transform(fullRow)
	values, err := s.attributor.Attribute(b.Estimator, scaled)
	if err != nil {
		return nil, &ScoringError{Stage: "attribution", Err: err}
	}

	n := len(values)
	if n != len(b.Columns) {
		slog.Warn("Attribution length does not match column count, truncating",
			"version", b.Version,
			"attribution_len", len(values),
			"columns", len(b.Columns))
		if len(b.Columns) < n {
			n = len(b.Columns)
		}
	}

	attribution := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		attribution[b.Columns[i]] = values[i]
	}
	return attribution, nil
}

// extractProbability defensively handles two-column and single-column
// probability outputs.
func extractProbability(est ml.Estimator, scaled []float64, pred int) (float64, error) {
	raw, err := est.PredictProba(scaled)
	if err != nil {
		return 0, err
	}
	switch len(raw) {
	case 2:
		return raw[1], nil
	case 1:
		return raw[0], nil
	default:
		return 0, fmt.Errorf("unexpected probability output width %d (prediction %d)", len(raw), pred)
	}
}
