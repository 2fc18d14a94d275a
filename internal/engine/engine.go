// Package engine orchestrates the scoring pipeline: imputation, encoding,
// scoring, attribution, drift detection and best-effort persistence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/drift"
	"github.com/oakmont-ai/scorecard/internal/explain"
	"github.com/oakmont-ai/scorecard/internal/feature"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/scorer"
	"github.com/oakmont-ai/scorecard/internal/service"
)

// ScoreResult is the full response for one scored application.
type ScoreResult struct {
	Timestamp          time.Time           `json:"timestamp"`
	Attribution        map[string]float64  `json:"attribution"`
	RecordID           string              `json:"record_id"`
	Category           model.RiskCategory  `json:"risk_category"`
	Explanation        string              `json:"explanation"`
	ModelVersion       string              `json:"model_version"`
	ImputationTrace    []string            `json:"imputation_trace,omitempty"`
	ValidationWarnings []string            `json:"validation_warnings,omitempty"`
	DriftWarnings      []drift.Warning     `json:"drift_warnings,omitempty"`
	Features           model.FeatureVector `json:"features"`
	ProbabilityPercent float64             `json:"probability_default_percent"`
	Decision           int                 `json:"binary_prediction"`
}

// BatchItem pairs one batch input with its result or error, preserving
// input order. A failed item never affects its neighbors.
type BatchItem struct {
	Result *ScoreResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ScoringEngine wires the pipeline components together. Scoring is
// stateless per call except for the scorer's shared bundle reference,
// which each call captures exactly once.
type ScoringEngine struct {
	scorer      *scorer.Scorer
	mapper      *feature.Mapper
	explanation *explain.Service
	storage     service.Storage
}

// New creates a scoring engine. storage may be nil, in which case results
// are not persisted; explanation may be nil for rule-based text only.
func New(sc *scorer.Scorer, explanation *explain.Service, storage service.Storage) *ScoringEngine {
	if explanation == nil {
		explanation = explain.NewService(nil)
	}
	return &ScoringEngine{
		scorer:      sc,
		mapper:      feature.NewMapper(),
		explanation: explanation,
		storage:     storage,
	}
}

// Available reports whether a model bundle is loaded.
func (e *ScoringEngine) Available() bool {
	return e.scorer.Available()
}

// Reload replaces the live bundle with the version store's current entry.
func (e *ScoringEngine) Reload() error {
	return e.scorer.Load("")
}

// ScoreApplication runs the full pipeline for one application. The bundle
// reference is captured once, so a concurrent reload cannot tear the
// request between versions. Persistence is best-effort: a storage failure
// is logged and the scoring response still returned.
func (e *ScoringEngine) ScoreApplication(ctx context.Context, app model.Application) (*ScoreResult, error) {
	bundle, err := e.scorer.Bundle()
	if err != nil {
		return nil, err
	}

	imputer := feature.NewImputerWithStats(bundle.Stats, bundle.Modes)
	vec, trace := imputer.Impute(app)
	warnings := imputer.Validate(app)

	row := e.mapper.Fill(e.mapper.Encode(vec), bundle.Columns)

	outcome, err := e.scorer.Score(bundle, row)
	if err != nil {
		return nil, err
	}

	attribution, err := e.scorer.Explain(bundle, row)
	if err != nil {
		// Attribution failure degrades the response, it does not fail it.
		common.LogError(err, "Attribution failed", common.Fields{"version": bundle.Version})
		attribution = nil
	}

	driftWarnings := drift.NewDetector(bundle.Stats).Check(vec)

	explanation := e.explanation.Explain(ctx, explain.Request{
		Category:    outcome.Category,
		Probability: outcome.Probability,
		Attribution: attribution,
	})

	result := &ScoreResult{
		RecordID:           uuid.NewString(),
		Timestamp:          time.Now().UTC(),
		Category:           outcome.Category,
		ProbabilityPercent: math.Round(outcome.Probability*10000) / 100,
		Decision:           outcome.Decision,
		Features:           vec,
		ImputationTrace:    trace,
		ValidationWarnings: warnings,
		DriftWarnings:      driftWarnings,
		Attribution:        attribution,
		Explanation:        explanation,
		ModelVersion:       bundle.Version,
	}

	e.persist(ctx, result, outcome.Probability)
	return result, nil
}

// ScoreBatch scores a list of applications, returning one item per input
// in input order.
func (e *ScoringEngine) ScoreBatch(ctx context.Context, apps []model.Application) []BatchItem {
	items := make([]BatchItem, len(apps))
	for i, app := range apps {
		result, err := e.ScoreApplication(ctx, app)
		if err != nil {
			items[i] = BatchItem{Error: err.Error()}
			continue
		}
		items[i] = BatchItem{Result: result}
	}
	return items
}

func (e *ScoringEngine) persist(ctx context.Context, result *ScoreResult, probability float64) {
	if e.storage == nil {
		return
	}

	record := &model.PredictionRecord{
		ID:           result.RecordID,
		CreatedAt:    result.Timestamp,
		Category:     result.Category,
		Probability:  probability,
		Decision:     result.Decision,
		Features:     result.Features,
		Attribution:  result.Attribution,
		Explanation:  result.Explanation,
		ModelVersion: result.ModelVersion,
	}

	if err := e.storage.SavePrediction(ctx, record); err != nil {
		common.LogError(err, "Failed to persist prediction (response still returned)",
			common.Fields{"record_id": record.ID})
		return
	}
	slog.Debug("Prediction persisted", "record_id", record.ID)
}

// Feedback attaches an actual outcome to a stored prediction.
func (e *ScoringEngine) Feedback(ctx context.Context, id string, outcome int) error {
	if e.storage == nil {
		return fmt.Errorf("no storage configured")
	}
	return e.storage.AttachFeedback(ctx, id, outcome)
}
