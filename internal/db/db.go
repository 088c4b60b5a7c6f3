// Package db provides PostgreSQL persistence for pipeline runs, their
// artifacts, and their audit timelines.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// EnsureSchema creates the tables this package uses when they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun records the start of a pipeline run under the pipeline's run id.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, programCategory string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, program_category, status)
		 VALUES ($1, $2, $3)`,
		runID, programCategory, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a pipeline run as finished
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, result RunResult) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET status = $1, outcome = $2, attempt_count = $3, fallback_used = $4,
		     error_message = $5, completed_at = NOW()
		 WHERE id = $6`,
		result.Status, result.Outcome, result.AttemptCount, result.FallbackUsed,
		nullIfEmpty(result.ErrorMessage), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete run: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a pipeline run by ID. It returns nil, nil when the run
// does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var outcome, errMsg *string
	err := db.pool.QueryRow(ctx,
		`SELECT id, program_category, status, outcome, attempt_count, fallback_used,
		        error_message, created_at, completed_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ProgramCategory, &run.Status, &outcome, &run.AttemptCount,
		&run.FallbackUsed, &errMsg, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Outcome = derefString(outcome)
	run.ErrorMessage = derefString(errMsg)
	return &run, nil
}

// ListRuns retrieves recent pipeline runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, program_category, status, COALESCE(outcome, ''), attempt_count,
		        fallback_used, COALESCE(error_message, ''), created_at, completed_at
		 FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ProgramCategory, &run.Status, &run.Outcome,
			&run.AttemptCount, &run.FallbackUsed, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
