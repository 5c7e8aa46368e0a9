package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"astergen/internal/blob"
	"astergen/internal/runlog"
)

type harness struct {
	dir string
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{dir: dir, env: map[string]string{
		"ASTERGEN_BLOB_FS_ROOT":   filepath.Join(dir, "out"),
		"ASTERGEN_HISTORY_DRIVER": "sqlite",
		"ASTERGEN_HISTORY_DSN":    filepath.Join(dir, "history.db"),
		"ASTERGEN_LOG_FORMAT":     "text",
		"ASTERGEN_LOG_LEVEL":      "error",
	}}
}

func (h *harness) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut, func(k string) string { return h.env[k] })
	return code, out.String(), errOut.String()
}

func (h *harness) model(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "hclmodel", "testdata", "cantilever.hcl"))
	require.NoError(t, err)
	path := filepath.Join(h.dir, "cantilever.hcl")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestTranslateWritesJobAndHistory(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("translate", "--graphs", h.model(t))
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "cantilever succeeded")
	require.FileExists(t, filepath.Join(h.dir, "out", "jobs", "cantilever", "cantilever.comm"))
	require.FileExists(t, filepath.Join(h.dir, "out", "jobs", "cantilever", "cantilever_1.dot"))

	code, out, errOut = h.run("history", "--json")
	require.Equal(t, 0, code, errOut)
	var run runlog.Run
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &run))
	require.Equal(t, runlog.StatusSucceeded, run.Status)

	code, out, _ = h.run("history", run.ID)
	require.Equal(t, 0, code)
	require.Contains(t, out, `"model": "cantilever"`)

	code, out, errOut = h.run("history", "--artifacts", run.ID)
	require.Equal(t, 0, code, errOut)
	var detail struct {
		Artifacts []blob.ArtifactState `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	require.Len(t, detail.Artifacts, len(run.Artifacts))
	for _, a := range detail.Artifacts {
		require.Equal(t, blob.StateCurrent, a.State, a.Key)
	}

	code, out, _ = h.run("history", "--model", "other")
	require.Equal(t, 0, code)
	require.Equal(t, 1, strings.Count(out, "\n"), "only the header line expected: %q", out)
}

func TestTranslateFailureExitsWithOne(t *testing.T) {
	h := newHarness(t)
	bad := filepath.Join(h.dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`analysis "a" { type = "telepathy" }`), 0o600))

	code, out, errOut := h.run("translate", bad)
	require.Equal(t, exitFailure, code)
	require.Contains(t, out, "bad failed")
	require.Contains(t, errOut, "1 of 1 translations failed")
	require.NoDirExists(t, filepath.Join(h.dir, "out", "jobs", "bad"))
}

func TestValidateCommand(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("validate", h.model(t))
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "cantilever: ok (2 analyses")
	require.NoDirExists(t, filepath.Join(h.dir, "out"))
}

func TestUsageErrorsExitWithTwo(t *testing.T) {
	h := newHarness(t)
	cases := [][]string{
		{"translate"},
		{"validate", "a.hcl", "b.hcl"},
		{"translate", "--no-such-flag", "a.hcl"},
		{"frobnicate"},
		{"history", "--history-driver", "mongo"},
	}
	for _, args := range cases {
		code, _, _ := h.run(args...)
		require.Equal(t, exitUsage, code, "args %v", args)
	}

	h.env["ASTERGEN_BLOB_DRIVER"] = "s3"
	code, _, errOut := h.run("translate", h.model(t))
	require.Equal(t, exitUsage, code)
	require.Contains(t, errOut, "blob.s3.bucket")
}

func TestHistoryUnknownRun(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("history", "nope")
	require.Equal(t, exitFailure, code)
	require.Contains(t, errOut, "run not found")
}
