package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EvalRun is one finalized evaluation run.
type EvalRun struct {
	ID         string
	Method     string
	Level      string
	Dataset    string
	Evaluated  int
	Skipped    int
	ReportJSON []byte
	CreatedAt  time.Time
}

// SaveRun records a finalized run and returns its generated ID.
func (db *DB) SaveRun(ctx context.Context, run EvalRun) (string, error) {
	id := uuid.NewString()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO eval_runs (id, method, level, dataset, evaluated, skipped, report_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, id, run.Method, run.Level, run.Dataset, run.Evaluated, run.Skipped, run.ReportJSON)
	if err != nil {
		return "", fmt.Errorf("save eval run: %w", err)
	}

	return id, nil
}

// GetRun fetches one run by ID. Returns nil when no run exists.
func (db *DB) GetRun(ctx context.Context, id string) (*EvalRun, error) {
	var run EvalRun

	err := db.Pool.QueryRow(ctx, `
		SELECT id, method, level, dataset, evaluated, skipped, report_json, created_at
		FROM eval_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.Method, &run.Level, &run.Dataset, &run.Evaluated, &run.Skipped, &run.ReportJSON, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no run found
		}

		return nil, fmt.Errorf("get eval run: %w", err)
	}

	return &run, nil
}

// ListRecentRuns returns the newest runs first.
func (db *DB) ListRecentRuns(ctx context.Context, limit int) ([]EvalRun, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, method, level, dataset, evaluated, skipped, report_json, created_at
		FROM eval_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list eval runs: %w", err)
	}
	defer rows.Close()

	runs := []EvalRun{}

	for rows.Next() {
		var run EvalRun

		if err := rows.Scan(&run.ID, &run.Method, &run.Level, &run.Dataset, &run.Evaluated, &run.Skipped, &run.ReportJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan eval run: %w", err)
		}

		runs = append(runs, run)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate eval runs: %w", rows.Err())
	}

	return runs, nil
}
