package graphcycle

import (
	"errors"
	"reflect"
	"testing"
)

func TestDetectCycle(t *testing.T) {
	graph := map[int][]int{1: {2}, 2: {3}, 3: {1}}
	err := Detect(Config[int]{
		Starts: []int{1},
		Next:   func(n int) []int { return graph[n] },
	})
	var ce CycleError[int]
	if !errors.As(err, &ce) {
		t.Fatalf("Detect() error = %v, want CycleError[int]", err)
	}
	if ce.Key != 1 || !reflect.DeepEqual(ce.Path, []int{1, 2, 3}) {
		t.Fatalf("unexpected cycle %+v", ce)
	}
}

func TestDetectMissing(t *testing.T) {
	graph := map[int][]int{1: {2}}
	cfg := Config[int]{
		Starts: []int{1},
		Next:   func(n int) []int { return graph[n] },
		Exists: func(n int) bool { _, ok := graph[n]; return ok },
	}
	if err := Detect(cfg); err != nil {
		t.Fatalf("missing nodes must be ignored by default, got %v", err)
	}
	cfg.ReportMissing = true
	var me MissingError[int]
	if err := Detect(cfg); !errors.As(err, &me) || me.From != 1 || me.Key != 2 {
		t.Fatalf("expected MissingError from 1 to 2, got %v", err)
	}
}

func TestDetectAcyclic(t *testing.T) {
	graph := map[string][]string{"c": {"b"}, "b": {"a"}, "a": nil, "d": {"a"}}
	err := Detect(Config[string]{
		Starts: []string{"c", "d"},
		Next:   func(n string) []string { return graph[n] },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
