package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"astergen/internal/runlog"
)

func finished(status runlog.Status) runlog.Run {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	return runlog.Run{
		ID: "r", Model: "beam", Status: status,
		StartedAt: start, FinishedAt: start.Add(250 * time.Millisecond),
		Analyses: 2, Warnings: 3, Omissions: 1, Violations: 1,
	}
}

func TestRecordRun(t *testing.T) {
	rec := NewRecorder(false)
	rec.RecordRun(finished(runlog.StatusSucceeded))
	rec.RecordRun(finished(runlog.StatusFailed))

	if got := testutil.ToFloat64(rec.translations.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("succeeded translations = %v", got)
	}
	if got := testutil.ToFloat64(rec.translations.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed translations = %v", got)
	}
	if got := testutil.ToFloat64(rec.analyses); got != 2 {
		t.Fatalf("failed runs must not count analyses, got %v", got)
	}
	if got := testutil.ToFloat64(rec.notices.WithLabelValues("warning")); got != 3 {
		t.Fatalf("warnings = %v", got)
	}
	if got := testutil.ToFloat64(rec.violations); got != 2 {
		t.Fatalf("violations = %v", got)
	}
	if n := testutil.CollectAndCount(rec.duration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestHandlerAndTextfile(t *testing.T) {
	rec := NewRecorder(false)
	rec.RecordRun(finished(runlog.StatusSucceeded))

	resp := httptest.NewRecorder()
	rec.Handler().ServeHTTP(resp, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(resp.Body.String(), `astergen_translations_total{status="succeeded"} 1`) {
		t.Fatalf("unexpected exposition:\n%s", resp.Body.String())
	}

	path := filepath.Join(t.TempDir(), "astergen.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "astergen_analyses_total 2") {
		t.Fatalf("unexpected textfile:\n%s", data)
	}
}

func TestTracerWritesSpansAndObservesStages(t *testing.T) {
	rec := NewRecorder(false)
	var buf bytes.Buffer
	tracer := NewTracer(&buf, rec)
	ctx := context.Background()
	tracer.Start(ctx, "r1", "load").End(nil)
	tracer.Start(ctx, "r1", "emit").End(errors.New("unsupported"))

	entries := tracer.Entries()
	if len(entries) != 2 || entries[1].Status != "error" || entries[1].Error != "unsupported" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two json lines, got %q", buf.String())
	}
	var first TraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Stage != "load" || first.RunID != "r1" {
		t.Fatalf("unexpected first line %q: %v", lines[0], err)
	}
	if n := testutil.CollectAndCount(rec.stages); n != 2 {
		t.Fatalf("expected two stage series, got %d", n)
	}
}
