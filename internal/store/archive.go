// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRunNotFound indicates no archived run exists with the given ID
	ErrRunNotFound = errors.New("archived run not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

// archiveSchema defines the transcript archive tables. A run is one fanned
// out conversation: a shared prompt plus one transcript per target.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    prompt TEXT NOT NULL,
    created_at INTEGER NOT NULL  -- Unix timestamp
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    target_label TEXT NOT NULL,
    position INTEGER NOT NULL,   -- Turn order within one target's transcript
    role TEXT NOT NULL,          -- "user" or "model"
    text TEXT NOT NULL,
    stopped INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_turns_run_id ON turns(run_id);
CREATE INDEX IF NOT EXISTS idx_turns_target ON turns(run_id, target_id, position);
`

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive persists completed runs to SQLite.
type Archive struct {
	db *sql.DB
}

// ArchivedTarget is one target's transcript within a run.
type ArchivedTarget struct {
	TargetID   string
	Label      string
	Transcript *model.Transcript
}

// RunSummary describes one archived run for listing.
type RunSummary struct {
	ID          string
	Prompt      string
	CreatedAt   time.Time
	TargetCount int
}

// Run is a fully loaded archived run.
type Run struct {
	ID        string
	Prompt    string
	CreatedAt time.Time
	Targets   []ArchivedTarget
}

// DefaultArchivePath returns the archive database path in the user's
// config directory.
func DefaultArchivePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fanout", "archive.db"), nil
}

// OpenArchive opens (or creates) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
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
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun archives one completed run and returns its ID.
func (a *Archive) SaveRun(ctx context.Context, prompt string, targets []ArchivedTarget) (string, error) {
	runID := uuid.NewString()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, prompt, created_at) VALUES (?, ?, ?)",
		runID, prompt, time.Now().Unix(),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO turns (run_id, target_id, target_label, position, role, text, stopped, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("failed to prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for _, target := range targets {
		if target.Transcript == nil {
			continue
		}
		for pos, turn := range target.Transcript.Turns {
			stopped := 0
			if turn.StoppedByUser {
				stopped = 1
			}
			if _, err := stmt.ExecContext(ctx,
				runID, target.TargetID, target.Label, pos,
				string(turn.Role), turn.Text, stopped, turn.Err,
			); err != nil {
				return "", fmt.Errorf("failed to insert turn: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT r.id, r.prompt, r.created_at,
		       (SELECT COUNT(DISTINCT t.target_id) FROM turns t WHERE t.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.Prompt, &createdAt, &s.TargetCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// LoadRun loads one archived run with all its transcripts.
func (a *Archive) LoadRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{ID: runID}

	var createdAt int64
	err := a.db.QueryRowContext(ctx,
		"SELECT prompt, created_at FROM runs WHERE id = ?", runID,
	).Scan(&run.Prompt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.CreatedAt = time.Unix(createdAt, 0)

	rows, err := a.db.QueryContext(ctx, `
		SELECT target_id, target_label, role, text, stopped, error
		FROM turns WHERE run_id = ?
		ORDER BY target_id, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	byTarget := make(map[string]*ArchivedTarget)
	var order []string
	for rows.Next() {
		var targetID, label, role, text, errText string
		var stopped int
		if err := rows.Scan(&targetID, &label, &role, &text, &stopped, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		target, ok := byTarget[targetID]
		if !ok {
			target = &ArchivedTarget{
				TargetID:   targetID,
				Label:      label,
				Transcript: model.NewTranscript(),
			}
			byTarget[targetID] = target
			order = append(order, targetID)
		}

		turn := &model.Turn{
			Role:          model.Role(role),
			Text:          text,
			StoppedByUser: stopped != 0,
			Err:           errText,
		}
		target.Transcript.Append(turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range order {
		run.Targets = append(run.Targets, *byTarget[id])
	}
	return run, nil
}

// DeleteRun removes one archived run and its turns.
func (a *Archive) DeleteRun(ctx context.Context, runID string) error {
	res, err := a.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
