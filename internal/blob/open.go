package blob

import (
	"context"
	"fmt"

	fsstore "astergen/internal/infra/blob/fs"
	memorystore "astergen/internal/infra/blob/memory"
	s3store "astergen/internal/infra/blob/s3"
)

// S3Config configures the S3 driver.
type S3Config = s3store.Config

// Config selects and configures a driver.
type Config struct {
	Driver Driver   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// Open returns the Store selected by cfg. An empty driver means the
// filesystem driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewFilesystem constructs a filesystem-backed Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	s, err := fsstore.New(root)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns an in-memory Store.
func NewMemory() *memorystore.Store { return memorystore.New() }

// NewS3 constructs an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	s, err := s3store.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
