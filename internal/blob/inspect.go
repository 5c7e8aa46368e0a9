package blob

import (
	"context"
	"errors"
	"fmt"
)

// State tells whether a published artifact still belongs to the run that
// wrote it.
type State string

const (
	// StateCurrent means the blob was last written by the run.
	StateCurrent State = "current"
	// StateReplaced means a later run overwrote the blob.
	StateReplaced State = "replaced"
	// StateMissing means the blob no longer exists.
	StateMissing State = "missing"
)

// ArtifactState is the stored state of one artifact key.
type ArtifactState struct {
	Key   string `json:"key"`
	State State  `json:"state"`
	Info  *Info  `json:"info,omitempty"`
}

// Inspect reports the state of keys published by run runID. Ownership is
// read from the run_id metadata written by the translator.
func Inspect(ctx context.Context, store Store, runID string, keys []string) ([]ArtifactState, error) {
	out := make([]ArtifactState, 0, len(keys))
	for _, key := range keys {
		info, err := store.Head(ctx, key)
		if errors.Is(err, ErrNotFound) {
			out = append(out, ArtifactState{Key: key, State: StateMissing})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", key, err)
		}
		st := StateReplaced
		if info.Metadata["run_id"] == runID {
			st = StateCurrent
		}
		out = append(out, ArtifactState{Key: key, State: st, Info: &info})
	}
	return out, nil
}
