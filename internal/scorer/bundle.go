// Package scorer loads artifact bundles resolved from the version store
// and exposes scoring and per-feature attribution over the loaded bundle.
package scorer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/manifest"
	"github.com/oakmont-ai/scorecard/internal/ml"
	"github.com/oakmont-ai/scorecard/internal/model"
)

// Bundle is one scorable model version: estimator, scaler and the exact
// column layout the estimator was trained on, plus the baseline feature
// statistics captured at training time. A bundle is immutable once
// loaded; reloads swap the whole reference.
type Bundle struct {
	Estimator ml.Estimator
	Scaler    *ml.Scaler
	Stats     map[string]model.FeatureStats
	Modes     map[string]string
	Version   string
	Columns   []string
}

// LoadBundle reads the three bundle artifacts named by a manifest entry,
// resolving relative paths against the store's artifact root. Any
// missing or unreadable artifact yields ErrBundleUnavailable; the caller
// degrades to an unavailable state rather than crashing.
func LoadBundle(store *manifest.Store, entry *model.ModelVersion) (*Bundle, error) {
	var est ml.Logit
	if err := readArtifact(store.ResolvePath(entry.EstimatorPath), &est); err != nil {
		return nil, fmt.Errorf("%w: estimator %s: %v", common.ErrBundleUnavailable, entry.EstimatorPath, err)
	}

	var scaler ml.Scaler
	if err := readArtifact(store.ResolvePath(entry.ScalerPath), &scaler); err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %v", common.ErrBundleUnavailable, entry.ScalerPath, err)
	}

	var columns []string
	if err := readArtifact(store.ResolvePath(entry.ColumnsPath), &columns); err != nil {
		return nil, fmt.Errorf("%w: columns %s: %v", common.ErrBundleUnavailable, entry.ColumnsPath, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: columns %s: empty column list", common.ErrBundleUnavailable, entry.ColumnsPath)
	}

	b := &Bundle{
		Version:   entry.Version,
		Estimator: &est,
		Scaler:    &scaler,
		Columns:   columns,
	}

	// Baseline statistics are optional on older entries; drift detection
	// simply has nothing to compare against without them.
	if entry.StatsPath != "" {
		stats := make(map[string]model.FeatureStats)
		if err := readArtifact(store.ResolvePath(entry.StatsPath), &stats); err != nil {
			slog.Warn("Baseline statistics unreadable, drift detection disabled for this bundle",
				"version", entry.Version, "path", entry.StatsPath, "error", err)
		} else {
			b.Stats = stats
		}
	}

	// Categorical modes are likewise optional; imputation falls back to
	// the fixed defaults without them.
	if entry.ModesPath != "" {
		modes := make(map[string]string)
		if err := readArtifact(store.ResolvePath(entry.ModesPath), &modes); err != nil {
			slog.Warn("Categorical modes unreadable, imputation uses fixed defaults",
				"version", entry.Version, "path", entry.ModesPath, "error", err)
		} else {
			b.Modes = modes
		}
	}

	return b, nil
}

func readArtifact(path string, v any) error {
	if path == "" {
		return fmt.Errorf("artifact path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupt artifact: %w", err)
	}
	return nil
}
