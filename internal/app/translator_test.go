package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"astergen/internal/blob"
	"astergen/internal/metrics"
	"astergen/internal/runlog"
)

type fixture struct {
	store   blob.Store
	history runlog.Store
	tracer  *metrics.Tracer
	tr      *Translator
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Output.Graphs = true
	if mutate != nil {
		mutate(&cfg)
	}
	f := &fixture{store: blob.NewMemory()}
	var err error
	f.history, err = runlog.Open(context.Background(), runlog.Config{Driver: runlog.DriverMemory})
	require.NoError(t, err)
	rec := metrics.NewRecorder(false)
	f.tracer = metrics.NewTracer(nil, rec)
	clock := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	f.tr = New(cfg, Deps{
		Blobs:   f.store,
		History: f.history,
		Metrics: rec,
		Tracer:  f.tracer,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version: "1.0",
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("run-%d", seq)
		},
	})
	return f
}

func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "cantilever.hcl"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cantilever.hcl")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func (f *fixture) read(t *testing.T, key string) string {
	t.Helper()
	_, rc, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestTranslatePublishesJob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.tr.Translate(ctx, copyFixture(t))
	require.NoError(t, err)
	require.Equal(t, runlog.StatusSucceeded, res.Run.Status)
	require.Equal(t, "cantilever", res.Run.Model)
	require.Equal(t, 2, res.Run.Analyses)
	require.Equal(t, time.Second, res.Run.Duration())
	require.Equal(t, []string{
		"jobs/cantilever/cantilever.comm",
		"jobs/cantilever/cantilever.export",
		"jobs/cantilever/cantilever.mail",
		"jobs/cantilever/cantilever_1.dot",
		"jobs/cantilever/cantilever_2.dot",
	}, res.Run.Artifacts)

	comm := f.read(t, "jobs/cantilever/cantilever.comm")
	require.Contains(t, comm, "DEBUT(")
	require.True(t, strings.HasSuffix(strings.TrimSpace(comm), "FIN(RETASSAGE='OUI')"))
	require.Contains(t, f.read(t, "jobs/cantilever/cantilever.export"), "F mail cantilever.mail D 20")
	require.Contains(t, f.read(t, "jobs/cantilever/cantilever.mail"), "COOR_3D")
	require.Contains(t, f.read(t, "jobs/cantilever/cantilever_1.dot"), "digraph analysis_1")

	info, err := f.store.Head(ctx, "jobs/cantilever/cantilever.comm")
	require.NoError(t, err)
	require.Equal(t, "run-1", info.Metadata["run_id"])

	run, err := f.history.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, res.Run.Artifacts, run.Artifacts)

	var stages []string
	for _, e := range f.tracer.Entries() {
		require.Equal(t, "success", e.Status, e.Stage)
		stages = append(stages, e.Stage)
	}
	require.Equal(t, []string{"load", "finish", "validate", "resolve", "emit", "export", "mesh", "publish"}, stages)
}

func TestTranslateFailurePublishesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("mesh {\n"), 0o600))

	res, err := f.tr.Translate(ctx, path)
	require.Error(t, err)
	require.Equal(t, runlog.StatusFailed, res.Run.Status)
	require.Equal(t, "broken", res.Run.Model)

	list, err := f.store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, list)

	runs, err := f.history.List(ctx, runlog.Filter{Model: "broken"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotEmpty(t, runs[0].Error)
}

func TestTranslateRejectsLargeModels(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Model.MaxBytes = 16 })
	_, err := f.tr.Translate(context.Background(), copyFixture(t))
	require.ErrorIs(t, err, ErrModelTooLarge)
}

func TestTranslateWithoutGraphs(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Output.Graphs = false
		c.Output.Prefix = ""
	})
	res, err := f.tr.Translate(context.Background(), copyFixture(t))
	require.NoError(t, err)
	require.Equal(t, []string{"cantilever/cantilever.comm", "cantilever/cantilever.export", "cantilever/cantilever.mail"}, res.Run.Artifacts)
}

func TestCheckDoesNotPublishOrRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res, err := f.tr.Check(ctx, copyFixture(t))
	require.NoError(t, err)
	require.Equal(t, "cantilever", res.Run.Model)
	require.True(t, res.Audit.Complete(), "unwritten: %v", res.Audit.Unwritten)

	list, err := f.store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, list)
	runs, err := f.history.List(ctx, runlog.Filter{})
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestOpenUsesConfiguredStores(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Blob.FSRoot = filepath.Join(dir, "out")
	cfg.History.DSN = filepath.Join(dir, "history.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "astergen.prom")
	cfg.Metrics.Trace = filepath.Join(dir, "trace.jsonl")
	var logs bytes.Buffer

	tr, err := Open(context.Background(), cfg, NewLogger(LogConfig{Level: "info", Format: "json"}, &logs), "1.0")
	require.NoError(t, err)
	_, err = tr.Translate(context.Background(), copyFixture(t))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	require.FileExists(t, filepath.Join(dir, "out", "jobs", "cantilever", "cantilever.comm"))
	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `astergen_translations_total{status="succeeded"} 1`)
	trace, err := os.ReadFile(cfg.Metrics.Trace)
	require.NoError(t, err)
	require.Contains(t, string(trace), `"stage":"publish"`)
	require.Contains(t, logs.String(), "translation published")

	bad := cfg
	bad.History.Driver = "mongo"
	_, err = Open(context.Background(), bad, nil, "1.0")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
