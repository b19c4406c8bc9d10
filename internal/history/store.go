// Package history persists completed apply and restore runs in a local
// SQLite database. History is an audit trail; the backup ledger alone drives
// restores.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"episodic/internal/logging"
	"episodic/internal/renamer"
	"episodic/internal/services"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Run is one recorded apply or restore.
type Run struct {
	ID         string
	Kind       string
	Directory  string
	Show       string
	Season     int
	Renamed    int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Entry is one file outcome within a run.
type Entry struct {
	Original string
	Renamed  string
	Status   string
	Reason   string
}

// ErrRunNotFound is returned by GetRun for unknown identifiers.
var ErrRunNotFound = errors.New("run not found")

// Store wraps the history database. It implements renamer.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrPermission, "history", "create database directory", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "history", "open database", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, services.Wrap(services.ErrTransient, "history", "configure database", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, services.Wrap(services.ErrTransient, "history", "apply schema", path, err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logging.NewComponentLogger(logger, "history")}, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		if err != nil {
			return services.Wrap(services.ErrTransient, "history", "write schema version", "", err)
		}
		return nil
	case err != nil:
		return services.Wrap(services.ErrTransient, "history", "read schema version", "", err)
	case version != schemaVersion:
		return services.Wrap(services.ErrValidation, "history", "check schema version",
			fmt.Sprintf("database has schema version %d, expected %d", version, schemaVersion), nil)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its per-file outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, record renamer.RunRecord) error {
	renamed, failed, skipped := renamer.Counts(record.Outcomes)
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "history", "begin transaction", "", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, directory, show, season, renamed, failed, skipped, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, record.Kind, record.Directory, record.Show, record.Season,
		renamed, failed, skipped,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return services.Wrap(services.ErrTransient, "history", "insert run", id, err)
	}

	for position, outcome := range record.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_entries (run_id, position, original, renamed, status, reason)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, position, outcome.Original, outcome.Target, string(outcome.Status), outcome.Reason)
		if err != nil {
			return services.Wrap(services.ErrTransient, "history", "insert run entry", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrTransient, "history", "commit run", id, err)
	}
	s.logger.Debug("run recorded",
		logging.String("id", id),
		logging.String("kind", record.Kind),
		logging.Int("renamed", renamed),
		logging.Int("failed", failed))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, directory, show, season, renamed, failed, skipped, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "history", "list runs", "", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "history", "list runs", "", err)
	}
	return runs, nil
}

// GetRun fetches one run and its entries by id. Prefixes are accepted when
// unambiguous.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, directory, show, season, renamed, failed, skipped, started_at, finished_at
		 FROM runs WHERE id = ? OR id LIKE ? || '%' ORDER BY started_at DESC LIMIT 1`, id, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, nil, services.Wrap(services.ErrNotFound, "history", "get run", id, ErrRunNotFound)
		}
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT original, renamed, status, reason FROM run_entries WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return Run{}, nil, services.Wrap(services.ErrTransient, "history", "get run entries", run.ID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Original, &entry.Renamed, &entry.Status, &entry.Reason); err != nil {
			return Run{}, nil, services.Wrap(services.ErrTransient, "history", "scan run entry", run.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, services.Wrap(services.ErrTransient, "history", "get run entries", run.ID, err)
	}
	return run, entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, finished string
	err := row.Scan(&run.ID, &run.Kind, &run.Directory, &run.Show, &run.Season,
		&run.Renamed, &run.Failed, &run.Skipped, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, services.Wrap(services.ErrTransient, "history", "scan run", "", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, services.Wrap(services.ErrValidation, "history", "parse run timestamp", started, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, services.Wrap(services.ErrValidation, "history", "parse run timestamp", finished, err)
	}
	return run, nil
}
