package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"astergen/internal/blob/core"
)

func TestStoreMissingKeys(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "job/a.comm", strings.NewReader("v"), core.PutOptions{Metadata: map[string]string{"a": "1"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "job/a.comm", strings.NewReader("v2"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "job/a.comm", strings.NewReader("v2"), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := store.Put(ctx, "other", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	info, rc, err := store.Get(ctx, "job/a.comm")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "v2" || info.Size != 2 || info.Metadata != nil {
		t.Fatalf("unexpected get %q %+v", b, info)
	}
	if list, err := store.List(ctx, ""); err != nil || len(list) != 2 {
		t.Fatalf("list all: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, "job/"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if data, ok := store.Bytes("job/a.comm"); !ok || string(data) != "v2" {
		t.Fatalf("bytes: %q %v", data, ok)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("fail") }

func TestStorePutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	if _, ok := store.Bytes("bad"); ok {
		t.Fatalf("failed put must not store anything")
	}
}
