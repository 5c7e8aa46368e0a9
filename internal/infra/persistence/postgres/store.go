// Package postgres persists run records in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"astergen/internal/infra/persistence/memory"
	"astergen/internal/runlog/core"
)

var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/astergen?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const createRuns = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL
)`

// Store keeps one row per run with the full record in a JSONB column.
type Store struct {
	db *sql.DB
}

// New connects to dsn (falls back to defaultDSN) and ensures the runs table
// exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRuns); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db}, nil
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
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id, model, started_at, payload) VALUES($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET model = EXCLUDED.model, started_at = EXCLUDED.started_at, payload = EXCLUDED.payload`,
		run.ID, run.Model, run.StartedAt.UTC(), string(payload)); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Run, error) {
	runs, err := s.selectRuns(ctx, `SELECT id, payload FROM runs WHERE id = $1`, id)
	if err != nil {
		return core.Run{}, err
	}
	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
	}
	return core.Run{}, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
}

// List filters and orders in Go after a model-scoped query so the ordering
// matches the other drivers exactly.
func (s *Store) List(ctx context.Context, f core.Filter) ([]core.Run, error) {
	runs, err := s.selectRuns(ctx, `SELECT id, payload FROM runs WHERE ($1 = '' OR model = $1)`, f.Model)
	if err != nil {
		return nil, err
	}
	out := runs[:0]
	for _, run := range runs {
		if f.Matches(run) {
			out = append(out, run)
		}
	}
	memory.SortRecentFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) selectRuns(ctx context.Context, query string, arg any) ([]core.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run core.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		run.StartedAt, run.FinishedAt = run.StartedAt.UTC(), run.FinishedAt.UTC()
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
