package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"astergen/internal/runlog/core"
)

func TestStoreRecordGetList(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []core.Run{
		{ID: "a", Model: "beam", StartedAt: base, Status: core.StatusSucceeded, Artifacts: []string{"beam.comm"}},
		{ID: "b", Model: "plate", StartedAt: base.Add(time.Minute), Status: core.StatusFailed},
		{ID: "c", Model: "beam", StartedAt: base.Add(2 * time.Minute), Status: core.StatusSucceeded},
	}
	for _, r := range runs {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.ID, err)
		}
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Artifacts[0] = "mutated"
	again, _ := s.Get(ctx, "a")
	if again.Artifacts[0] != "beam.comm" {
		t.Fatalf("store leaked internal slice")
	}

	all, err := s.List(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order %+v", all)
	}
	beams, _ := s.List(ctx, core.Filter{Model: "beam", Limit: 1})
	if len(beams) != 1 || beams[0].ID != "c" {
		t.Fatalf("unexpected filtered list %+v", beams)
	}
}

func TestStoreErrors(t *testing.T) {
	s := New()
	if err := s.Record(context.Background(), core.Run{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
