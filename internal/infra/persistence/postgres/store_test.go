package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"astergen/internal/infra/persistence/postgres/testutil"
	"astergen/internal/runlog/core"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, conn
}

func run(id, model string, minute int) core.Run {
	start := time.Date(2026, 3, 1, 9, minute, 0, 0, time.UTC)
	return core.Run{ID: id, Model: model, Job: model, Status: core.StatusSucceeded, StartedAt: start, FinishedAt: start.Add(time.Second)}
}

func TestNewCreatesRunsTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS runs") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected runs table DDL, got %v", conn.Execs)
	}
}

func TestRecordGetList(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	for _, r := range []core.Run{run("a", "beam", 1), run("b", "plate", 2), run("c", "beam", 3)} {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record %s: %v", r.ID, err)
		}
	}
	updated := run("a", "beam", 1)
	updated.Status = core.StatusFailed
	if err := store.Record(ctx, updated); err != nil {
		t.Fatalf("Record update: %v", err)
	}
	if len(conn.Tables["runs"]) != 3 {
		t.Fatalf("expected upsert, got %d rows", len(conn.Tables["runs"]))
	}
	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != core.StatusFailed || got.Duration() != time.Second {
		t.Fatalf("unexpected run %+v", got)
	}
	runs, err := store.List(ctx, core.Filter{Model: "beam"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "a" {
		t.Fatalf("unexpected listing %+v", runs)
	}
	limited, err := store.List(ctx, core.Filter{Limit: 1})
	if err != nil || len(limited) != 1 || limited[0].ID != "c" {
		t.Fatalf("unexpected limited listing %v %+v", err, limited)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordErrors(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if err := store.Record(ctx, core.Run{}); err == nil {
		t.Fatalf("expected empty id error")
	}
	conn.FailBegin = true
	if err := store.Record(ctx, run("x", "beam", 0)); err == nil || !strings.Contains(err.Error(), "begin") {
		t.Fatalf("expected begin error, got %v", err)
	}
	conn.FailBegin, conn.FailCommit = false, true
	if err := store.Record(ctx, run("x", "beam", 0)); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
	conn.FailCommit, conn.RowsErr = false, errors.New("broken cursor")
	if _, err := store.List(ctx, core.Filter{}); err == nil {
		t.Fatalf("expected rows error")
	}
}

func TestNewPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := New(context.Background(), "postgres://example"); err == nil {
		t.Fatalf("expected ping failure")
	}
}
