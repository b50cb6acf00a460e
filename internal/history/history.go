// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists export run records in SQLite.
//
// The history store is distinct from the checkpoint: the checkpoint is
// transient resume state cleared after a successful run, while history
// is a durable log of every run and per-conversation outcome that the
// `history` command reads back.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the export run log
const schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Runs table: one row per export run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,   -- Unix timestamp
    finished_at INTEGER,           -- NULL while running
    scope TEXT NOT NULL,           -- current, ids, all
    formats TEXT NOT NULL,         -- comma-joined
    status TEXT NOT NULL,          -- running, done, failed, cancelled
    exported INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    archive_path TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

-- Outcomes table: per-conversation result within a run
CREATE TABLE IF NOT EXISTS outcomes (
    run_id TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    title TEXT,
    status TEXT NOT NULL,          -- exported, failed, empty
    reason TEXT,                   -- failure reason, empty otherwise
    PRIMARY KEY (run_id, conversation_id),
    FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id);
`

const initMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`

// =============================================================================
// TYPES
// =============================================================================

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunDone      RunStatus = "done"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// OutcomeStatus is the per-conversation result within a run.
type OutcomeStatus string

const (
	OutcomeExported OutcomeStatus = "exported"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeEmpty    OutcomeStatus = "empty"
)

// Run is one export run record.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Scope       string
	Formats     string
	Status      RunStatus
	Exported    int
	Failed      int
	ArchivePath string
}

// Outcome is one conversation's result inside a run.
type Outcome struct {
	RunID          string
	ConversationID string
	Title          string
	Status         OutcomeStatus
	Reason         string
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed run log.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location under the user's
// home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".chatgpt-exporter", "history.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history metadata: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// WRITES
// =============================================================================

// BeginRun records the start of an export run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, scope, formats, status)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.Scope, run.Formats, string(RunRunning))
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun records the terminal state and counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, exported, failed int, archivePath string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, exported = ?, failed = ?, archive_path = ?
		 WHERE id = ?`,
		time.Now().Unix(), string(status), exported, failed, archivePath, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// RecordOutcome records one conversation's result. Re-recording the
// same conversation within a run overwrites the previous row, so a
// resumed run converges to one outcome per id.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, conversation_id, title, status, reason)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, conversation_id) DO UPDATE SET
		   title = excluded.title, status = excluded.status, reason = excluded.reason`,
		o.RunID, o.ConversationID, o.Title, string(o.Status), o.Reason)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, scope, formats, status, exported, failed,
		        COALESCE(archive_path, '')
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			finished sql.NullInt64
			status   string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Scope, &run.Formats,
			&status, &run.Exported, &run.Failed, &run.ArchivePath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		if finished.Valid {
			t := time.Unix(finished.Int64, 0).UTC()
			run.FinishedAt = &t
		}
		run.Status = RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Outcomes returns every recorded outcome of one run, exported first,
// then failures, then empties, each group ordered by conversation id.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, conversation_id, COALESCE(title, ''), status, COALESCE(reason, '')
		 FROM outcomes WHERE run_id = ?
		 ORDER BY CASE status
		   WHEN 'exported' THEN 0
		   WHEN 'failed' THEN 1
		   ELSE 2
		 END, conversation_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o      Outcome
			status string
		)
		if err := rows.Scan(&o.RunID, &o.ConversationID, &o.Title, &status, &o.Reason); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = OutcomeStatus(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
