package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/config"
	"github.com/oakmont-ai/scorecard/internal/engine"
	"github.com/oakmont-ai/scorecard/internal/explain"
	"github.com/oakmont-ai/scorecard/internal/manifest"
	"github.com/oakmont-ai/scorecard/internal/retrain"
	"github.com/oakmont-ai/scorecard/internal/scorer"
	"github.com/oakmont-ai/scorecard/internal/storage"
)

// app bundles the wired services behind the CLI commands.
type app struct {
	storage  *storage.SQLiteStorage
	versions *manifest.Store
	scorer   *scorer.Scorer
	engine   *engine.ScoringEngine
}

// newApp opens storage, the version store and the scorer. When loadBundle
// is set the current bundle is loaded eagerly; a load failure degrades to
// an unavailable scorer rather than an error, matching the serving
// semantics.
func newApp(ctx context.Context, loadBundle bool) (*app, func(), error) {
	dbPath := config.ExpandPath(viper.GetString("data.db"))
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, common.NewUserError("failed to open prediction database", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}

	if err := store.Migrate(ctx); err != nil {
		cleanup()
		return nil, nil, common.NewUserError("failed to migrate database schema", err)
	}

	artifactRoot := config.ExpandPath(viper.GetString("artifacts.dir"))
	versions, err := manifest.NewStore(filepath.Join(artifactRoot, "manifest.json"), artifactRoot)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sc := scorer.New(versions, nil)
	if loadBundle {
		if err := sc.Load(""); err != nil {
			if errors.Is(err, common.ErrBundleUnavailable) || errors.Is(err, common.ErrNoVersions) {
				slog.Warn("No usable model bundle, scoring unavailable until retrain/reload", "error", err)
			} else {
				cleanup()
				return nil, nil, err
			}
		}
	}

	eng := engine.New(sc, explain.NewService(nil), store)

	return &app{
		storage:  store,
		versions: versions,
		scorer:   sc,
		engine:   eng,
	}, cleanup, nil
}

// retrainer builds a retrainer over the app's stores.
func (a *app) retrainer() *retrain.Retrainer {
	return retrain.New(a.storage, a.versions)
}

// retrainDefaults reads the configured retraining thresholds.
func retrainDefaults() retrain.Options {
	return retrain.Options{
		MinSamples:       viper.GetInt("retrain.min_samples"),
		MinFeedbackRatio: viper.GetFloat64("retrain.min_feedback_ratio"),
		TestFraction:     viper.GetFloat64("retrain.test_fraction"),
	}
}
