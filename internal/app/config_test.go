package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"astergen/internal/blob"
	"astergen/internal/runlog"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadConfigLayersFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astergen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: warn
solver:
  tpmax: 600
blob:
  driver: s3
  s3:
    bucket: jobs
    region: eu-west-3
output:
  graphs: true
`), 0o600))

	cfg, err := LoadConfig(path, env(map[string]string{
		"ASTERGEN_HISTORY_DRIVER":     "memory",
		"ASTERGEN_LOG_LEVEL":          "debug",
		"ASTERGEN_BLOB_S3_PATH_STYLE": "true",
		"ASTERGEN_BLOB_S3_ENDPOINT":   "http://minio:9000",
	}))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "auto", cfg.Log.Format)
	require.Equal(t, 600, cfg.Solver.Tpmax)
	require.Equal(t, 64.0, cfg.Solver.Memjeveux)
	require.Equal(t, blob.DriverS3, cfg.Blob.Driver)
	require.Equal(t, "jobs", cfg.Blob.S3.Bucket)
	require.True(t, cfg.Blob.S3.PathStyle)
	require.Equal(t, "http://minio:9000", cfg.Blob.S3.Endpoint)
	require.Equal(t, runlog.DriverMemory, cfg.History.Driver)
	require.True(t, cfg.Output.Graphs)
	require.True(t, cfg.Model.Strict)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("", env(nil))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("colour: blue\n"), 0o600))

	_, err := LoadConfig(unknown, env(nil))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "file", cfgErr.Field)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), env(nil))
	require.ErrorAs(t, err, &cfgErr)

	_, err = LoadConfig("", env(map[string]string{"ASTERGEN_BLOB_S3_PATH_STYLE": "sometimes"}))
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "ASTERGEN_BLOB_S3_PATH_STYLE", cfgErr.Field)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "loud"
	cfg.Blob.Driver = blob.DriverS3
	cfg.History.Driver = "mongo"
	cfg.Solver.Version = "12.3"
	cfg.Solver.MeshUnit = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"log.level", "blob.s3.bucket", "history.driver", "solver.version", "solver.mesh_unit"} {
		require.Contains(t, err.Error(), field)
	}
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateAcceptsLauncherAliases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Version = "testing"
	require.NoError(t, cfg.Validate())
	cfg.Solver.Version = "15.2"
	require.NoError(t, cfg.Validate())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LogConfig{Level: "info", Format: "auto"}, &buf).Info("hello", "k", 1)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "auto must pick JSON for a non-terminal writer")
	require.Equal(t, "hello", line["msg"])

	buf.Reset()
	logger := NewLogger(LogConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "msg=kept")
}
