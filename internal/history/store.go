// Package history provides SQLite-backed storage for past run records.
//
// The history store is orchestration-layer state: the executor never
// touches it, and losing it loses nothing but the `vmtest list` view.
// Run artifacts on disk remain the source of truth for any single run.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded run.
type Run struct {
	// ID is a UUIDv7, so lexical order follows creation order.
	ID string

	// SpecName is the name field of the executed spec.
	SpecName string

	StartedAt  time.Time
	FinishedAt time.Time

	// Success mirrors the persisted summary's success flag.
	Success bool

	// ExitCode is the failing command's exit status, 0 on success.
	ExitCode int

	// CommandCount is the number of commands that actually executed.
	CommandCount int

	// OutputDir is the run's artifact directory.
	OutputDir string

	// ErrorLine is the extracted error hint, empty when none was found.
	ErrorLine string
}

// Store records runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path, applying pragmas
// and the schema. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under interleaved record/list calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts one run record. Duplicate IDs are rejected.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, spec_name, started_at, finished_at, success, exit_code, command_count, output_dir, error_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.SpecName,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.Success,
		run.ExitCode,
		run.CommandCount,
		run.OutputDir,
		run.ErrorLine,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spec_name, started_at, finished_at, success, exit_code, command_count, output_dir, error_line
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			finished int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.SpecName,
			&started,
			&finished,
			&run.Success,
			&run.ExitCode,
			&run.CommandCount,
			&run.OutputDir,
			&run.ErrorLine,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finished, 0).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
