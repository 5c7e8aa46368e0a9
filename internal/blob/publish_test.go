package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func artifacts() []Artifact {
	return []Artifact{
		{Name: "job.comm", ContentType: "text/plain", Data: []byte("DEBUT()\nFIN()\n")},
		{Name: "job.export", ContentType: "text/plain", Data: []byte("P actions make_etude\n")},
	}
}

func TestPublishWritesUnderPrefix(t *testing.T) {
	store := NewMemory()
	infos, err := Publish(context.Background(), store, "runs/job", artifacts(), map[string]string{"run_id": "r1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "runs/job/job.comm" || infos[1].Key != "runs/job/job.export" {
		t.Fatalf("unexpected infos %+v", infos)
	}
	if infos[0].Metadata["run_id"] != "r1" {
		t.Fatalf("metadata not propagated: %+v", infos[0])
	}
	data, ok := store.Bytes("runs/job/job.comm")
	if !ok || string(data) != "DEBUT()\nFIN()\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPublishReplacesPreviousRun(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	if _, err := Publish(ctx, store, "job", artifacts(), nil); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	next := []Artifact{{Name: "job.comm", Data: []byte("changed")}}
	if _, err := Publish(ctx, store, "job", next, nil); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	data, _ := store.Bytes("job/job.comm")
	if string(data) != "changed" {
		t.Fatalf("expected replaced content, got %q", data)
	}
}

// failingStore fails every Put after the first n.
type failingStore struct {
	Store
	n int
}

func (f *failingStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if f.n == 0 {
		return Info{}, errors.New("quota exceeded")
	}
	f.n--
	return f.Store.Put(ctx, key, r, opts)
}

func TestPublishRollsBackOnFailure(t *testing.T) {
	mem := NewMemory()
	store := &failingStore{Store: mem, n: 1}
	_, err := Publish(context.Background(), store, "job", artifacts(), nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected publish error, got %v", err)
	}
	list, err := mem.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected rollback to leave nothing, found %+v", list)
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(ctx, Config{FSRoot: filepath.Join(t.TempDir(), "out")})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fs.Driver() != DriverFilesystem {
		t.Fatalf("expected filesystem driver, got %s", fs.Driver())
	}
	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("open memory: %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

// keyFailingStore fails writes to one key.
type keyFailingStore struct {
	Store
	key string
}

func (f *keyFailingStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if key == f.key {
		return Info{}, errors.New("disk full")
	}
	return f.Store.Put(ctx, key, r, opts)
}

func TestPublishFailureKeepsPreviousJob(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	if _, err := Publish(ctx, mem, "job", artifacts(), map[string]string{"run_id": "r1"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	store := &keyFailingStore{Store: mem, key: "job/job.export"}
	next := []Artifact{
		{Name: "job.comm", Data: []byte("changed")},
		{Name: "job.export", Data: []byte("changed")},
	}
	if _, err := Publish(ctx, store, "job", next, map[string]string{"run_id": "r2"}); err == nil {
		t.Fatalf("expected publish error")
	}
	data, ok := mem.Bytes("job/job.comm")
	if !ok || string(data) != "DEBUT()\nFIN()\n" {
		t.Fatalf("expected previous command file to be restored, got %q", data)
	}
	info, err := mem.Head(ctx, "job/job.comm")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Metadata["run_id"] != "r1" || info.ContentType != "text/plain" {
		t.Fatalf("expected previous metadata to be restored, got %+v", info)
	}
	if data, _ := mem.Bytes("job/job.export"); string(data) != "P actions make_etude\n" {
		t.Fatalf("unexpected export %q", data)
	}
}

func TestPublishPrunesStaleArtifacts(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	first := append(artifacts(), Artifact{Name: "job_3.dot", Data: []byte("digraph analysis_3 {}")})
	if _, err := Publish(ctx, mem, "job", first, nil); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := Publish(ctx, mem, "jobs", artifacts(), nil); err != nil {
		t.Fatalf("sibling publish: %v", err)
	}
	if _, err := Publish(ctx, mem, "job", artifacts(), nil); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	list, err := mem.List(ctx, "job/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected the stale graph to be removed, found %+v", list)
	}
	if sibling, _ := mem.List(ctx, "jobs/"); len(sibling) != 2 {
		t.Fatalf("publishing job must not touch jobs/, found %+v", sibling)
	}
}

func TestInspectReportsOwnership(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	if _, err := Publish(ctx, mem, "job", artifacts(), map[string]string{"run_id": "r1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	next := []Artifact{{Name: "job.comm", Data: []byte("changed")}}
	if _, err := Publish(ctx, mem, "job", next, map[string]string{"run_id": "r2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	states, err := Inspect(ctx, mem, "r1", []string{"job/job.comm", "job/job.export"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if states[0].State != StateReplaced || states[1].State != StateMissing {
		t.Fatalf("unexpected states %+v", states)
	}
	states, err = Inspect(ctx, mem, "r2", []string{"job/job.comm"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if states[0].State != StateCurrent || states[0].Info.Size != int64(len("changed")) {
		t.Fatalf("unexpected state %+v", states[0])
	}
}
