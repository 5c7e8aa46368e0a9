// Package lifecycle schedules the release of solver-side concepts.
//
// The solver keeps every named result (matrix, field, table) until it is
// explicitly destroyed. A Tracker collects the names that became dead while
// one analysis was written and releases them in a single batch when that
// analysis is closed.
package lifecycle

import (
	"fmt"
	"io"
)

// Tracker holds the concepts pending destruction for the current analysis.
type Tracker struct {
	pending []string
	seen    map[string]struct{}
	flushed int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Register schedules a concept for destruction at the next Flush. Names are
// kept in registration order; registering a name twice has no effect.
func (t *Tracker) Register(name string) {
	if name == "" {
		return
	}
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = struct{}{}
	t.pending = append(t.pending, name)
}

// Pending returns a copy of the names scheduled for destruction.
func (t *Tracker) Pending() []string {
	return append([]string(nil), t.pending...)
}

// Released returns how many concepts have been released so far.
func (t *Tracker) Released() int { return t.flushed }

// Flush writes one DETRUIRE statement naming every pending concept and
// clears the list. Nothing is written when the list is empty. It returns
// the released names.
func (t *Tracker) Flush(w io.Writer) ([]string, error) {
	if len(t.pending) == 0 {
		return nil, nil
	}
	released := t.pending
	t.pending = nil
	t.seen = make(map[string]struct{})
	t.flushed += len(released)

	if _, err := io.WriteString(w, "DETRUIRE(CONCEPT=(\n"); err != nil {
		return nil, err
	}
	for _, name := range released {
		if _, err := fmt.Fprintf(w, "    _F(NOM=%s),\n", name); err != nil {
			return nil, err
		}
	}
	if _, err := io.WriteString(w, "))\n\n"); err != nil {
		return nil, err
	}
	return released, nil
}
