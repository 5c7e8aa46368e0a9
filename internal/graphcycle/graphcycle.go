// Package graphcycle detects cycles in small directed graphs given by a
// neighbour function.
package graphcycle

import "fmt"

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a cycle closing at Key. Path lists the keys from the
// first occurrence of Key to the edge closing the cycle.
type CycleError[K comparable] struct {
	Key  K
	Path []K
}

func (e CycleError[K]) Error() string {
	return fmt.Sprintf("cycle detected at %v (path %v)", e.Key, e.Path)
}

// MissingError reports an edge to a node that does not exist.
type MissingError[K comparable] struct {
	From K
	Key  K
}

func (e MissingError[K]) Error() string {
	return fmt.Sprintf("%v references missing node %v", e.From, e.Key)
}

// Config configures a traversal. Exists may be nil, in which case every
// node exists. When ReportMissing is false, edges to missing nodes are
// ignored.
type Config[K comparable] struct {
	Starts        []K
	Next          func(K) []K
	Exists        func(K) bool
	ReportMissing bool
}

// Detect walks the graph from every start and returns the first cycle or
// missing node found.
func Detect[K comparable](cfg Config[K]) error {
	if cfg.Next == nil {
		return fmt.Errorf("cycle detect: next function is nil")
	}
	states := make(map[K]visitState, len(cfg.Starts))
	var stack []K

	var visit func(key, from K, hasFrom bool) error
	visit = func(key, from K, hasFrom bool) error {
		switch states[key] {
		case stateVisiting:
			path := []K{key}
			for i := len(stack) - 1; i >= 0 && stack[i] != key; i-- {
				path = append([]K{stack[i]}, path...)
			}
			return CycleError[K]{Key: key, Path: append([]K{key}, path[:len(path)-1]...)}
		case stateDone:
			return nil
		}
		if cfg.Exists != nil && !cfg.Exists(key) {
			if !cfg.ReportMissing || !hasFrom {
				return nil
			}
			return MissingError[K]{From: from, Key: key}
		}
		states[key] = stateVisiting
		stack = append(stack, key)
		for _, next := range cfg.Next(key) {
			if err := visit(next, key, true); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[key] = stateDone
		return nil
	}

	var zero K
	for _, start := range cfg.Starts {
		if err := visit(start, zero, false); err != nil {
			return err
		}
	}
	return nil
}
