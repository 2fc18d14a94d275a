package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oakmont-ai/scorecard/internal/service"
)

// RegisterColumns records any previously unseen feature columns in the
// versioned column registry and appends one change-log row per addition.
// Unknown columns are accepted, never rejected; imports that widen the
// schema bump the registry version once. Returns the names actually
// added.
func (s *SQLiteStorage) RegisterColumns(ctx context.Context, numeric, categorical []string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	type pending struct {
		name string
		kind string
	}
	var candidates []pending
	for _, name := range numeric {
		candidates = append(candidates, pending{name: name, kind: "numeric"})
	}
	for _, name := range categorical {
		candidates = append(candidates, pending{name: name, kind: "categorical"})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(registry_version), 0) FROM schema_columns`).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry version: %w", err)
	}
	nextVersion := version + 1

	var added []string
	for _, c := range candidates {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT kind FROM schema_columns WHERE name = ?`, c.name).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check column %s: %w", c.name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schema_columns (name, kind, registry_version) VALUES (?, ?, ?)
		`, c.name, c.kind, nextVersion); err != nil {
			return nil, fmt.Errorf("failed to register column %s: %w", c.name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schema_changes (registry_version, column_name, action) VALUES (?, ?, 'add')
		`, nextVersion, c.name); err != nil {
			return nil, fmt.Errorf("failed to log column %s: %w", c.name, err)
		}
		added = append(added, c.name)
	}

	if len(added) == 0 {
		return nil, tx.Rollback()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registry update: %w", err)
	}

	slog.Info("Registered new schema columns",
		"registry_version", nextVersion,
		"columns", added)
	return added, nil
}

// RegisteredColumns returns the registry in registration order.
func (s *SQLiteStorage) RegisteredColumns(ctx context.Context) ([]service.RegisteredColumn, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, registry_version, added_at
		FROM schema_columns ORDER BY registry_version, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query column registry: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []service.RegisteredColumn
	for rows.Next() {
		var c service.RegisteredColumn
		if err := rows.Scan(&c.Name, &c.Kind, &c.Version, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}
