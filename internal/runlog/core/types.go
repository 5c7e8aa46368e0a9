// Package core defines the run record and the store contract implemented by
// the history drivers.
package core

import (
	"context"
	"errors"
	"time"
)

// Status is the outcome of a translation run.
type Status string

// Run outcomes.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusInvalid marks a model rejected by blocking validation rules.
	StatusInvalid Status = "invalid"
)

// Run records one translation of a model.
type Run struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Job        string    `json:"job"`
	Source     string    `json:"source,omitempty"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Analyses   int       `json:"analyses"`
	Warnings   int       `json:"warnings"`
	Omissions  int       `json:"omissions"`
	Violations int       `json:"violations"`
	Artifacts  []string  `json:"artifacts,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Filter narrows a listing. Zero values match everything; Limit <= 0 means
// no limit.
type Filter struct {
	Model string
	Limit int
}

// Store persists run records. List returns the most recent runs first.
type Store interface {
	Record(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, f Filter) ([]Run, error)
	Close() error
}

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("runlog: run not found")

// Matches reports whether run passes the model filter.
func (f Filter) Matches(run Run) bool { return f.Model == "" || f.Model == run.Model }
