package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"astergen/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func put(t *testing.T, store *Store, key, body string, opts core.PutOptions) core.Info {
	t.Helper()
	info, err := store.Put(context.Background(), key, strings.NewReader(body), opts)
	if err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
	return info
}

func TestStorePutGetHeadListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info := put(t, store, "job/job.comm", "DEBUT()", core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"run": "r1"}})
	if info.Key != "job/job.comm" || info.Size != 7 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "job/job.comm", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	h, err := store.Head(ctx, "job/job.comm")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.Metadata["run"] != "r1" || h.ContentType != "text/plain" {
		t.Fatalf("unexpected head %+v", h)
	}
	g, rc, err := store.Get(ctx, "job/job.comm")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "DEBUT()" || g.ETag != h.ETag {
		t.Fatalf("unexpected get %q %+v", b, g)
	}
	put(t, store, "other/x.mail", "FIN", core.PutOptions{})
	list, err := store.List(ctx, "job/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "job/job.comm" {
		t.Fatalf("unexpected list %+v", list)
	}
	ok, err := store.Delete(ctx, "job/job.comm")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "job/job.comm")
	if err != nil || ok {
		t.Fatalf("second delete should be false: %v %v", ok, err)
	}
}

func TestStoreOverwriteReplacesContent(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	first := put(t, store, "job.comm", "one", core.PutOptions{})
	second := put(t, store, "job.comm", "second", core.PutOptions{Overwrite: true})
	if first.ETag == second.ETag || second.Size != 6 {
		t.Fatalf("overwrite did not replace content: %+v %+v", first, second)
	}
	_, rc, err := store.Get(ctx, "job.comm")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "second" {
		t.Fatalf("got %q", b)
	}
}

func TestStoreMissingKeys(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../b", "job.comm.meta"} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestStoreLeavesNoTempFilesOnReadError(t *testing.T) {
	store := newTempStore(t)
	_, err := store.Put(context.Background(), "job.comm", io.MultiReader(strings.NewReader("half"), failingReader{}), core.PutOptions{})
	if err == nil {
		t.Fatalf("expected read error")
	}
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root, found %d entries", len(entries))
	}
}

func TestStoreListCorruptMetadata(t *testing.T) {
	store := newTempStore(t)
	data := filepath.Join(store.Root(), "bad.comm")
	if err := os.WriteFile(data, []byte("data"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := os.WriteFile(data+metaSuffix, []byte("{"), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error on corrupt metadata")
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store := newTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "job.comm", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
