package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cellframe/internal/summary"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const batchSize = 500 // measurements per COPY

const createRuns = `CREATE TABLE IF NOT EXISTS runs (
	id         UUID PRIMARY KEY,
	input      TEXT NOT NULL,
	mode       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const addRunStatus = `ALTER TABLE runs ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'running'`

// Run states kept in runs.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const createMeasurements = `CREATE TABLE IF NOT EXISTS measurements (
	run_id         UUID NOT NULL REFERENCES runs (id),
	frame_index    INTEGER NOT NULL,
	frame          TEXT NOT NULL,
	category       TEXT NOT NULL,
	count          INTEGER NOT NULL,
	avg_area       DOUBLE PRECISION NOT NULL,
	avg_brightness DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, frame_index, category)
)`

var measurementColumns = []string{"run_id", "frame_index", "frame", "category", "count", "avg_area", "avg_brightness"}

// Postgres writes measurements of one run to a PostgreSQL database.
type Postgres struct {
	pool    *pgxpool.Pool
	runID   uuid.UUID
	pending []summary.Measurement
}

// NewPostgres connects, creates the tables if needed and registers a new run.
func NewPostgres(ctx context.Context, dsn, input, mode string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range []string{createRuns, addRunStatus, createMeasurements} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	s := &Postgres{pool: pool, runID: uuid.New()}
	_, err = pool.Exec(ctx,
		"INSERT INTO runs (id, input, mode, created_at, status) VALUES ($1, $2, $3, $4, $5)",
		[16]byte(s.runID), input, mode, time.Now(), StatusRunning)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create run entry: %w", err)
	}
	return s, nil
}

func (s *Postgres) RunID() uuid.UUID {
	return s.runID
}

func (s *Postgres) Add(ctx context.Context, ms ...summary.Measurement) error {
	s.pending = append(s.pending, ms...)
	if len(s.pending) >= batchSize {
		return s.flush(ctx)
	}
	return nil
}

func (s *Postgres) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"measurements"}, measurementColumns,
		pgx.CopyFromRows(copyRows(s.runID, s.pending)))
	if err != nil {
		return fmt.Errorf("failed to copy %d measurements: %w", len(s.pending), err)
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *Postgres) setStatus(ctx context.Context, status string) error {
	_, err := s.pool.Exec(ctx, "UPDATE runs SET status = $1 WHERE id = $2", status, [16]byte(s.runID))
	if err != nil {
		return fmt.Errorf("failed to mark run %s: %w", status, err)
	}
	return nil
}

// Close writes the pending measurements and marks the run completed.
func (s *Postgres) Close(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.flush(ctx); err != nil {
		return err
	}
	return s.setStatus(ctx, StatusCompleted)
}

// Abort drops the pending measurements, deletes the ones already written and
// marks the run failed.
func (s *Postgres) Abort(ctx context.Context) error {
	defer s.pool.Close()
	s.pending = nil
	if _, err := s.pool.Exec(ctx, "DELETE FROM measurements WHERE run_id = $1", [16]byte(s.runID)); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}
	return s.setStatus(ctx, StatusFailed)
}

func copyRows(runID uuid.UUID, ms []summary.Measurement) [][]any {
	rows := make([][]any, len(ms))
	for i, m := range ms {
		rows[i] = []any{[16]byte(runID), int32(m.FrameIndex), m.Frame, m.Category, int32(m.Count), m.AvgArea, m.AvgBrightness}
	}
	return rows
}
