// Package blob is the artifact sink of the translator. It re-exports the
// core store contract and selects a driver; other packages must not import
// the infra drivers directly.
package blob

import (
	"astergen/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrExists indicates a key is already taken.
	ErrExists = core.ErrExists
	// ErrNotFound indicates a key has no blob.
	ErrNotFound = core.ErrNotFound
)
