// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/oakmont-ai/scorecard/internal/model"
)

// PredictionFilter defines filtering options for prediction queries.
type PredictionFilter struct {
	OnlyWithFeedback bool
	Limit            int
	Offset           int
}

// ImportStats summarizes a bulk import: batches are committed
// independently, so a failed batch leaves earlier ones intact.
type ImportStats struct {
	Imported     int
	Batches      int
	FailedBatch  int // 1-based index of the failed batch, 0 if none
	NewColumns   []string
	WithOutcomes int
}

// RegisteredColumn is one entry of the versioned column registry backing
// the dynamic wide-record schema.
type RegisteredColumn struct {
	AddedAt time.Time
	Name    string
	Kind    string // "numeric" or "categorical"
	Version int
}

// Storage defines the contract for the prediction/outcome store.
type Storage interface {
	// Prediction record operations
	SavePrediction(ctx context.Context, record *model.PredictionRecord) error
	GetPrediction(ctx context.Context, id string) (*model.PredictionRecord, error)
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.PredictionRecord, error)
	AttachFeedback(ctx context.Context, id string, outcome int) error
	CountPredictions(ctx context.Context) (int, error)
	CountWithFeedback(ctx context.Context) (int, error)

	// Bulk import with per-batch transactions
	BulkImport(ctx context.Context, records []model.PredictionRecord, batchSize int) (ImportStats, error)

	// Dynamic schema registry
	RegisterColumns(ctx context.Context, numeric, categorical []string) ([]string, error)
	RegisteredColumns(ctx context.Context) ([]RegisteredColumn, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// VersionStore is the append-only artifact-bundle ledger.
type VersionStore interface {
	Append(entry model.ModelVersion) error
	Current() (*model.ModelVersion, error)
	Get(version string) (*model.ModelVersion, error)
	All() ([]model.ModelVersion, error)
	NextVersionID() (string, error)
	ResolvePath(p string) string
	Root() string
}
