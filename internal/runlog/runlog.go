// Package runlog records the history of translation runs. It re-exports the
// core record and store contract and opens the configured driver; other
// packages must not import the persistence drivers directly.
package runlog

import (
	"context"
	"fmt"

	"astergen/internal/infra/persistence/memory"
	"astergen/internal/infra/persistence/postgres"
	"astergen/internal/infra/persistence/sqlite"
	"astergen/internal/runlog/core"
)

type (
	// Run records one translation of a model.
	Run = core.Run
	// Status is the outcome of a run.
	Status = core.Status
	// Filter narrows a listing.
	Filter = core.Filter
	// Store persists run records.
	Store = core.Store
)

const (
	StatusSucceeded = core.StatusSucceeded
	StatusFailed    = core.StatusFailed
	StatusInvalid   = core.StatusInvalid
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = core.ErrNotFound

// Driver selects a history backend.
type Driver string

// Supported drivers.
const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects and configures a driver. DSN is the database path for
// sqlite and the connection string for postgres.
type Config struct {
	Driver Driver `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Open returns the Store selected by cfg. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		s, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}
