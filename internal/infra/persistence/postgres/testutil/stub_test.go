package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBUpsertsAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	insert := "INSERT INTO runs(id, payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"first", "second"} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "r1"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext: %v", err)
		}
	}
	if len(conn.Tables["runs"]) != 1 {
		t.Fatalf("expected upsert to keep one row, got %v", conn.Tables["runs"])
	}
	rows, err := conn.QueryContext(ctx, "SELECT payload FROM runs WHERE id = $1", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "second" {
		t.Fatalf("unexpected row values: %v", dest)
	}
}
