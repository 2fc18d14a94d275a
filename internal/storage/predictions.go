package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/service"
)

// SavePrediction persists one prediction record. This is the best-effort
// write after scoring; the caller decides whether a failure is fatal.
func (s *SQLiteStorage) SavePrediction(ctx context.Context, record *model.PredictionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if err := validateString(record.ID, "record.ID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertPrediction(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPrediction(ctx context.Context, tx *sql.Tx, record *model.PredictionRecord) error {
	features, err := json.Marshal(record.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	var attribution []byte
	if record.Attribution != nil {
		attribution, err = json.Marshal(record.Attribution)
		if err != nil {
			return fmt.Errorf("failed to encode attribution: %w", err)
		}
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO predictions (
			id, created_at, category, probability, decision,
			features, attribution, explanation, model_version,
			actual_outcome, feedback_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, createdAt, string(record.Category), record.Probability, record.Decision,
		string(features), nullableBytes(attribution), nullableString(record.Explanation),
		nullableString(record.ModelVersion), record.ActualOutcome, record.FeedbackAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w", record.ID, err)
	}
	return nil
}

// GetPrediction loads one record by id.
func (s *SQLiteStorage) GetPrediction(ctx context.Context, id string) (*model.PredictionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectPredictionColumns+` FROM predictions WHERE id = ?`, id)
	record, err := scanPrediction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prediction %s: %w", id, common.ErrNotFound)
	}
	return record, err
}

// ListPredictions returns records ordered oldest-first.
func (s *SQLiteStorage) ListPredictions(ctx context.Context, filter service.PredictionFilter) ([]model.PredictionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := selectPredictionColumns + ` FROM predictions`
	if filter.OnlyWithFeedback {
		query += ` WHERE actual_outcome IS NOT NULL`
	}
	query += ` ORDER BY created_at, id`

	args := []any{}
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PredictionRecord
	for rows.Next() {
		record, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// AttachFeedback records the actual outcome for a prediction. Latest
// feedback wins: re-attachment overwrites the prior outcome, and the
// overwrite is logged with the previous value.
func (s *SQLiteStorage) AttachFeedback(ctx context.Context, id string, outcome int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if outcome != 0 && outcome != 1 {
		return fmt.Errorf("outcome must be 0 or 1, got %d", outcome)
	}

	var prior sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT actual_outcome FROM predictions WHERE id = ?`, id).Scan(&prior)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("prediction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load prediction %s: %w", id, err)
	}

	if prior.Valid {
		slog.Warn("Overwriting existing feedback",
			"prediction_id", id,
			"prior_outcome", prior.Int64,
			"new_outcome", outcome)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE predictions SET actual_outcome = ?, feedback_at = ? WHERE id = ?
	`, outcome, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to attach feedback to %s: %w", id, err)
	}
	return nil
}

// CountPredictions returns the total number of stored records.
func (s *SQLiteStorage) CountPredictions(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM predictions`)
}

// CountWithFeedback returns the number of records carrying an outcome.
func (s *SQLiteStorage) CountWithFeedback(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM predictions WHERE actual_outcome IS NOT NULL`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// BulkImport writes records in batches, each batch in its own
// transaction. A failing batch rolls back fully; batches committed
// before it stay intact. Unknown feature columns across the import are
// registered in the dynamic schema before any rows are written.
func (s *SQLiteStorage) BulkImport(ctx context.Context, records []model.PredictionRecord, batchSize int) (service.ImportStats, error) {
	stats := service.ImportStats{}
	if err := validateContext(ctx); err != nil {
		return stats, err
	}
	if batchSize <= 0 {
		batchSize = 200
	}

	numeric, categorical := collectColumns(records)
	newCols, err := s.RegisterColumns(ctx, numeric, categorical)
	if err != nil {
		return stats, err
	}
	stats.NewColumns = newCols

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := s.importBatch(ctx, batch); err != nil {
			stats.FailedBatch = stats.Batches + 1
			return stats, fmt.Errorf("import batch %d failed: %w", stats.FailedBatch, err)
		}

		stats.Batches++
		stats.Imported += len(batch)
		for i := range batch {
			if batch[i].ActualOutcome != nil {
				stats.WithOutcomes++
			}
		}
	}

	return stats, nil
}

func (s *SQLiteStorage) importBatch(ctx context.Context, batch []model.PredictionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range batch {
		if err := insertPrediction(ctx, tx, &batch[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func collectColumns(records []model.PredictionRecord) (numeric, categorical []string) {
	numSeen := make(map[string]bool)
	catSeen := make(map[string]bool)
	for i := range records {
		for field := range records[i].Features.Numeric {
			if !numSeen[field] {
				numSeen[field] = true
				numeric = append(numeric, field)
			}
		}
		for field := range records[i].Features.Categorical {
			if !catSeen[field] {
				catSeen[field] = true
				categorical = append(categorical, field)
			}
		}
	}
	return numeric, categorical
}

const selectPredictionColumns = `SELECT id, created_at, category, probability, decision,
	features, attribution, explanation, model_version, actual_outcome, feedback_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (*model.PredictionRecord, error) {
	var record model.PredictionRecord
	var features string
	var attribution, explanation, version sql.NullString
	var outcome sql.NullInt64
	var feedbackAt sql.NullTime

	err := row.Scan(&record.ID, &record.CreatedAt, &record.Category, &record.Probability,
		&record.Decision, &features, &attribution, &explanation, &version, &outcome, &feedbackAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(features), &record.Features); err != nil {
		return nil, fmt.Errorf("corrupt features for prediction %s: %w", record.ID, err)
	}
	if attribution.Valid && attribution.String != "" {
		if err := json.Unmarshal([]byte(attribution.String), &record.Attribution); err != nil {
			return nil, fmt.Errorf("corrupt attribution for prediction %s: %w", record.ID, err)
		}
	}
	if explanation.Valid {
		record.Explanation = explanation.String
	}
	if version.Valid {
		record.ModelVersion = version.String
	}
	if outcome.Valid {
		val := int(outcome.Int64)
		record.ActualOutcome = &val
	}
	if feedbackAt.Valid {
		t := feedbackAt.Time
		record.FeedbackAt = &t
	}
	return &record, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
