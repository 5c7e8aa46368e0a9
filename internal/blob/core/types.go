// Package core defines the artifact store contract implemented by the blob
// drivers.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem writes artifacts under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 writes artifacts to an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps artifacts in process memory (tests, dry runs).
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
	// Overwrite replaces an existing blob instead of failing with ErrExists.
	Overwrite bool
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a minimal S3-like key/value store for translation artifacts.
type Store interface {
	// Put stores r at key. Without Overwrite it fails with ErrExists when the
	// key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns the blob contents; ErrNotFound when missing.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a blob. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs whose key has the provided prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrExists is returned by Put when the key is taken and Overwrite is off.
	ErrExists = errors.New("blob: key already exists")
	// ErrNotFound is returned when a key has no blob.
	ErrNotFound = errors.New("blob: key not found")
)
