package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"astergen/internal/blob/core"
)

// fakeS3 serves the subset of the S3 REST API the store uses.
type fakeS3 struct {
	mu    sync.Mutex
	state map[string]stored
	// pageSize truncates list responses to exercise pagination.
	pageSize int
}

type stored struct {
	body        []byte
	contentType string
}

func respond(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: header}
}

func (f *fakeS3) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req), nil
	}
	switch req.Method {
	case http.MethodHead:
		st, ok := f.state[key]
		if !ok {
			return respond(http.StatusNotFound, "", nil), nil
		}
		return respond(http.StatusOK, "", http.Header{
			"Content-Length": {strconv.Itoa(len(st.body))},
			"Content-Type":   {st.contentType},
			"Etag":           {"\"etag-" + strconv.Itoa(len(st.body)) + "\""},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		f.state[key] = stored{body: body, contentType: req.Header.Get("Content-Type")}
		return respond(http.StatusOK, "", http.Header{"Etag": {"\"etag\""}}), nil
	case http.MethodGet:
		st, ok := f.state[key]
		if !ok {
			return respond(http.StatusNotFound, "<Error><Code>NoSuchKey</Code></Error>", http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return respond(http.StatusOK, string(st.body), http.Header{
			"Content-Length": {strconv.Itoa(len(st.body))},
			"Content-Type":   {st.contentType},
		}), nil
	case http.MethodDelete:
		delete(f.state, key)
		return respond(http.StatusNoContent, "", nil), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}

func (f *fakeS3) list(req *http.Request) *http.Response {
	q := req.URL.Query()
	prefix := q.Get("prefix")
	var keys []string
	for k := range f.state {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if tok := q.Get("continuation-token"); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	if end < len(keys) {
		fmt.Fprintf(&b, "<IsTruncated>true</IsTruncated><NextContinuationToken>%d</NextContinuationToken>", end)
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
	}
	for _, k := range keys[start:end] {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
			k, len(f.state[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, b.String(), http.Header{"Content-Type": {"application/xml"}})
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(strings.SplitN(parts[0], ";", 2)[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeStore(t *testing.T, fake *fakeS3, prefix string) *Store {
	t.Helper()
	store, err := New(context.Background(), Config{
		Bucket:          "artifacts",
		Prefix:          prefix,
		Endpoint:        "https://fake.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      fake,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStoreBasicFlow(t *testing.T) {
	fake := &fakeS3{state: make(map[string]stored)}
	store := newFakeStore(t, fake, "runs/")
	ctx := context.Background()
	info, err := store.Put(ctx, "job/job.comm", bytes.NewReader([]byte("DEBUT()")), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "job/job.comm" || info.ContentType != "text/plain" || info.Size != 7 {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, ok := fake.state["runs/job/job.comm"]; !ok {
		t.Fatalf("object not stored under prefix: %v", fake.state)
	}
	if _, err := store.Put(ctx, "job/job.comm", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "job/job.comm", strings.NewReader("FIN()"), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := store.Get(ctx, "job/job.comm")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "FIN()" {
		t.Fatalf("get mismatch: %q", data)
	}
	list, err := store.List(ctx, "job/")
	if err != nil || len(list) != 1 || list[0].Key != "job/job.comm" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if ok, err := store.Delete(ctx, "job/job.comm"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "job/job.comm"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestStoreMissingKeysMapToNotFound(t *testing.T) {
	store := newFakeStore(t, &fakeS3{state: make(map[string]stored)}, "")
	ctx := context.Background()
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
}

func TestStoreListPaginates(t *testing.T) {
	fake := &fakeS3{state: make(map[string]stored), pageSize: 2}
	store := newFakeStore(t, fake, "")
	ctx := context.Background()
	for _, k := range []string{"job/a", "job/b", "job/c", "other"} {
		if _, err := store.Put(ctx, k, strings.NewReader(k), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "job/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[2].Key != "job/c" {
		t.Fatalf("expected three keys over two pages, got %+v", list)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestFromHeadDefaults(t *testing.T) {
	store := &Store{}
	etag := "\"abc\""
	info := store.fromHead("k", 10, nil, &etag, nil, nil)
	if info.ETag != "abc" || info.ContentType != "" || info.Size != 10 || info.LastModified.IsZero() {
		t.Fatalf("unexpected info: %+v", info)
	}
}
