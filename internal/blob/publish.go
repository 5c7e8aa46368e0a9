package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Artifact is one generated file waiting to be published.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// previous is the blob a key held before the current publication touched it.
type previous struct {
	info Info
	data []byte
}

// publication tracks the keys touched by one Publish call so that they can
// be restored.
type publication struct {
	store   Store
	saved   map[string]*previous // nil value: the key was empty
	touched []string
}

// Publish writes artifacts under prefix and removes the blobs an earlier
// publication left there that this one no longer produces. When any step
// fails every touched key is restored to its previous content, so the
// prefix holds either the new job or the old one.
func Publish(ctx context.Context, store Store, prefix string, artifacts []Artifact, metadata map[string]string) ([]Info, error) {
	p := &publication{store: store, saved: make(map[string]*previous)}
	infos := make([]Info, 0, len(artifacts))
	keep := make(map[string]struct{}, len(artifacts))
	for _, a := range artifacts {
		key := path.Join(prefix, a.Name)
		keep[key] = struct{}{}
		if err := p.save(ctx, key); err != nil {
			return nil, errors.Join(err, p.rollback(ctx))
		}
		info, err := store.Put(ctx, key, bytes.NewReader(a.Data), PutOptions{
			ContentType: a.ContentType,
			Metadata:    metadata,
			Overwrite:   true,
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("publish %s: %w", key, err), p.rollback(ctx))
		}
		infos = append(infos, info)
	}

	dir := prefix
	if dir != "" {
		dir += "/"
	}
	stale, err := store.List(ctx, dir)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("publish %s: %w", prefix, err), p.rollback(ctx))
	}
	for _, info := range stale {
		if _, ok := keep[info.Key]; ok || strings.Contains(strings.TrimPrefix(info.Key, dir), "/") {
			continue
		}
		if err := p.save(ctx, info.Key); err != nil {
			return nil, errors.Join(err, p.rollback(ctx))
		}
		if _, err := store.Delete(ctx, info.Key); err != nil {
			return nil, errors.Join(fmt.Errorf("prune %s: %w", info.Key, err), p.rollback(ctx))
		}
	}
	return infos, nil
}

func (p *publication) save(ctx context.Context, key string) error {
	info, rc, err := p.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		p.saved[key] = nil
	case err != nil:
		return fmt.Errorf("save %s: %w", key, err)
	default:
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
		p.saved[key] = &previous{info: info, data: data}
	}
	p.touched = append(p.touched, key)
	return nil
}

func (p *publication) rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, key := range p.touched {
		prev := p.saved[key]
		if prev == nil {
			if _, err := p.store.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("rollback %s: %w", key, err))
			}
			continue
		}
		_, err := p.store.Put(ctx, key, bytes.NewReader(prev.data), PutOptions{
			ContentType: prev.info.ContentType,
			Metadata:    prev.info.Metadata,
			Overwrite:   true,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
