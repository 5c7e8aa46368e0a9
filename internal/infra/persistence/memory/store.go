// Package memory keeps run records in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"astergen/internal/runlog/core"
)

// Store implements core.Store with a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	runs map[string]core.Run
}

// New returns an empty store.
func New() *Store { return &Store{runs: make(map[string]core.Run)} }

// Record inserts or replaces a run.
func (s *Store) Record(_ context.Context, run core.Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return core.Run{}, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	return cloneRun(run), nil
}

func (s *Store) List(_ context.Context, f core.Filter) ([]core.Run, error) {
	s.mu.RLock()
	out := make([]core.Run, 0, len(s.runs))
	for _, run := range s.runs {
		if f.Matches(run) {
			out = append(out, cloneRun(run))
		}
	}
	s.mu.RUnlock()
	SortRecentFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// SortRecentFirst orders runs by start time, newest first, ids breaking ties.
func SortRecentFirst(runs []core.Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}

func cloneRun(r core.Run) core.Run {
	r.Artifacts = append([]string(nil), r.Artifacts...)
	return r
}
