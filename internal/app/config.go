package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"astergen/internal/blob"
	"astergen/internal/export"
	"astergen/internal/runlog"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASTERGEN_"

// Config is the translator configuration. Zero values are replaced by
// DefaultConfig before the file is decoded, so a file only lists what it
// changes.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Model   ModelConfig   `yaml:"model"`
	Solver  SolverConfig  `yaml:"solver"`
	Output  OutputConfig  `yaml:"output"`
	Blob    blob.Config   `yaml:"blob"`
	History runlog.Config `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ModelConfig tunes loading and finishing.
type ModelConfig struct {
	// Strict aborts translation on blocking validation violations.
	Strict             bool  `yaml:"strict"`
	VirtualDiscretes   bool  `yaml:"virtual_discretes"`
	AutoDetectAnalysis bool  `yaml:"auto_detect_analysis"`
	MaxBytes           int64 `yaml:"max_bytes"`
}

// SolverConfig describes the target solver installation.
type SolverConfig struct {
	Version    string  `yaml:"version"`
	Constraint string  `yaml:"constraint"`
	Memjeveux  float64 `yaml:"memjeveux"`
	Tpmax      int     `yaml:"tpmax"`
	MeshUnit   int     `yaml:"mesh_unit"`
}

// OutputConfig controls what is generated.
type OutputConfig struct {
	// Prefix is the blob key prefix; the job name is appended.
	Prefix         string `yaml:"prefix"`
	Graphs         bool   `yaml:"graphs"`
	Debug          bool   `yaml:"debug"`
	StressRecovery bool   `yaml:"stress_recovery"`
}

// MetricsConfig enables the metric exports.
type MetricsConfig struct {
	// Textfile is rewritten after every run when set.
	Textfile string `yaml:"textfile"`
	// Listen serves /metrics in watch mode, e.g. ":9464".
	Listen string `yaml:"listen"`
	// Trace receives one JSON line per translation stage when set.
	Trace string `yaml:"trace"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Model: ModelConfig{
			Strict:             true,
			VirtualDiscretes:   true,
			AutoDetectAnalysis: true,
			MaxBytes:           64 << 20,
		},
		Solver: SolverConfig{
			Version:    export.DefaultSolverVersion,
			Constraint: export.DefaultSolverConstraint,
			Memjeveux:  export.DefaultMemjeveux,
			Tpmax:      export.DefaultTpmax,
			MeshUnit:   20,
		},
		Output:  OutputConfig{Prefix: "jobs"},
		Blob:    blob.Config{Driver: blob.DriverFilesystem, FSRoot: "./out"},
		History: runlog.Config{Driver: runlog.DriverSQLite, DSN: "astergen.db"},
	}
}

// LoadConfig reads path (when not empty) over the defaults and applies the
// environment overrides read through getenv.
func LoadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, &ConfigError{Field: "file", Reason: "cannot read " + path, Err: err}
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, &ConfigError{Field: "file", Reason: "cannot decode " + path, Err: err}
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	var driver, history string
	str("BLOB_DRIVER", &driver)
	if driver != "" {
		c.Blob.Driver = blob.Driver(driver)
	}
	str("BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("BLOB_S3_REGION", &c.Blob.S3.Region)
	str("BLOB_S3_PREFIX", &c.Blob.S3.Prefix)
	str("BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("BLOB_S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("BLOB_S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	str("BLOB_S3_SESSION_TOKEN", &c.Blob.S3.SessionToken)
	if v := getenv(EnvPrefix + "BLOB_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: EnvPrefix + "BLOB_S3_PATH_STYLE", Reason: "not a boolean", Err: err}
		}
		c.Blob.S3.PathStyle = b
	}
	str("HISTORY_DRIVER", &history)
	if history != "" {
		c.History.Driver = runlog.Driver(history)
	}
	str("HISTORY_DSN", &c.History.DSN)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return nil
}

// Validate checks drivers, the solver version and the limits.
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ConfigError{Field: "log.level", Reason: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, &ConfigError{Field: "log.format", Reason: fmt.Sprintf("unknown format %q", c.Log.Format)})
	}
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, &ConfigError{Field: "blob.s3.bucket", Reason: "required by the s3 driver"})
		}
	default:
		errs = append(errs, &ConfigError{Field: "blob.driver", Reason: fmt.Sprintf("unknown driver %q", c.Blob.Driver)})
	}
	switch c.History.Driver {
	case runlog.DriverSQLite, runlog.DriverPostgres, runlog.DriverMemory:
	default:
		errs = append(errs, &ConfigError{Field: "history.driver", Reason: fmt.Sprintf("unknown driver %q", c.History.Driver)})
	}
	if err := export.CheckSolverVersion(c.Solver.Version, c.Solver.Constraint); err != nil {
		errs = append(errs, &ConfigError{Field: "solver.version", Reason: "rejected", Err: err})
	}
	if c.Solver.Memjeveux <= 0 {
		errs = append(errs, &ConfigError{Field: "solver.memjeveux", Reason: "must be positive"})
	}
	if c.Solver.Tpmax <= 0 {
		errs = append(errs, &ConfigError{Field: "solver.tpmax", Reason: "must be positive"})
	}
	if c.Solver.MeshUnit < 1 || c.Solver.MeshUnit > 99 {
		errs = append(errs, &ConfigError{Field: "solver.mesh_unit", Reason: "must be a logical unit between 1 and 99"})
	}
	if c.Model.MaxBytes <= 0 {
		errs = append(errs, &ConfigError{Field: "model.max_bytes", Reason: "must be positive"})
	}
	return errors.Join(errs...)
}
