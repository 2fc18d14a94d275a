package model

import "time"

// RiskCategory buckets a default probability into a coarse risk band.
type RiskCategory string

// Risk category constants. Thresholds are strict: a probability of
// exactly 0.6 is borderline, exactly 0.4 is low.
const (
	RiskLow        RiskCategory = "LOW"
	RiskBorderline RiskCategory = "BORDERLINE"
	RiskHigh       RiskCategory = "HIGH"
)

// CategorizeRisk maps a default probability to its risk band.
func CategorizeRisk(probability float64) RiskCategory {
	switch {
	case probability > 0.6:
		return RiskHigh
	case probability > 0.4:
		return RiskBorderline
	default:
		return RiskLow
	}
}

// PredictionRecord is one scored application as persisted in the outcome
// store. A record is created once per scoring call; the only permitted
// mutation is attaching an actual outcome later.
type PredictionRecord struct {
	CreatedAt     time.Time          `json:"created_at"`
	FeedbackAt    *time.Time         `json:"feedback_at,omitempty"`
	ActualOutcome *int               `json:"actual_outcome,omitempty"`
	Attribution   map[string]float64 `json:"attribution,omitempty"`
	Features      FeatureVector      `json:"features"`
	ID            string             `json:"id"`
	Category      RiskCategory       `json:"category"`
	Explanation   string             `json:"explanation,omitempty"`
	ModelVersion  string             `json:"model_version"`
	Probability   float64            `json:"probability"`
	Decision      int                `json:"decision"`
}

// HasFeedback reports whether an actual outcome has been attached.
func (r *PredictionRecord) HasFeedback() bool {
	return r.ActualOutcome != nil
}
