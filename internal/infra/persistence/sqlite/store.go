// Package sqlite persists run records in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"astergen/internal/runlog/core"
)

const defaultPath = "astergen.db"

// Store keeps one row per run: indexed columns for filtering plus the full
// record as a JSON payload.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (and creates when needed) the database at path.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS runs_model_started ON runs(model, started_at)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs index: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Record(ctx context.Context, run core.Run) (retErr error) {
	if run.ID == "" {
		return fmt.Errorf("record run: empty id")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id,model,started_at,payload) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET model=excluded.model, started_at=excluded.started_at, payload=excluded.payload`,
		run.ID, run.Model, run.StartedAt.UnixNano(), payload); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, id string) (core.Run, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Run{}, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Run{}, fmt.Errorf("select run %s: %w", id, err)
	}
	return decode(payload)
}

func (s *Store) List(ctx context.Context, f core.Filter) ([]core.Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs
		WHERE (? = '' OR model = ?) ORDER BY started_at DESC, id ASC LIMIT ?`, f.Model, f.Model, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func decode(payload []byte) (core.Run, error) {
	var run core.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return core.Run{}, fmt.Errorf("decode run: %w", err)
	}
	run.StartedAt, run.FinishedAt = run.StartedAt.UTC(), run.FinishedAt.UTC()
	return run, nil
}
