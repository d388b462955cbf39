// SPDX-License-Identifier: MIT

// Package history persists one record per generation run in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

// Result values for a recorded run.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Trigger values describing what started a run.
const (
	TriggerCLI   = "cli"
	TriggerAPI   = "api"
	TriggerWatch = "watch"
)

// Run is one recorded generation run.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Result      string
	Components  int
	Files       int
	Cached      int
	PipelineRan bool
	TriggeredBy string
	Error       string
}

// Duration returns the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	result TEXT NOT NULL CHECK(result IN ('ok', 'error')),
	components INTEGER NOT NULL DEFAULT 0,
	files INTEGER NOT NULL DEFAULT 0,
	cached INTEGER NOT NULL DEFAULT 0,
	pipeline_ran INTEGER NOT NULL DEFAULT 0,
	triggered_by TEXT NOT NULL DEFAULT 'cli' CHECK(triggered_by IN ('cli', 'api', 'watch')),
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// runColumns is the column list every query selects or inserts, in
// scanRun order.
const runColumns = "id, started_at, finished_at, result, components, files, cached, pipeline_ran, triggered_by, error"

// Store records generation runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the run database and applies the schema.
// WAL mode plus a busy timeout lets the API read history while a run
// is being recorded.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run and returns its ID. A missing ID is assigned.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID,
		run.StartedAt.Format(time.RFC3339Nano),
		run.FinishedAt.Format(time.RFC3339Nano),
		run.Result,
		run.Components,
		run.Files,
		run.Cached,
		run.PipelineRan,
		run.TriggeredBy,
		run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}

// Get retrieves a single run by ID. Returns (nil, nil) when the run
// does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &r, nil
}

// Recent retrieves the most recent runs, newest first. The id is the
// tiebreaker so identical timestamps still order deterministically.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune deletes all but the newest keep runs. Returns the number of
// deleted rows.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)",
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var r Run
	var started, finished string
	if err := sc.Scan(
		&r.ID, &started, &finished, &r.Result,
		&r.Components, &r.Files, &r.Cached, &r.PipelineRan,
		&r.TriggeredBy, &r.Error,
	); err != nil {
		return Run{}, err
	}
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at for run %s: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at for run %s: %w", r.ID, err)
	}
	return r, nil
}
