package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions tunes Watch.
type WatchOptions struct {
	Debounce time.Duration
	// OnResult is called after every translation, mostly for tests.
	OnResult func(Result, error)
}

// Watch translates modelPath once, then again every time it changes, until
// ctx is done. Translations run one at a time on the calling goroutine;
// events arriving during a translation trigger a single follow-up run.
// A failed translation is logged and does not stop the watch.
func (t *Translator) Watch(ctx context.Context, modelPath string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(modelPath)
	if err != nil {
		return fmt.Errorf("watch %s: %w", modelPath, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", modelPath, err)
	}
	defer func() { _ = w.Close() }()
	// Editors often replace the file, so the directory is watched instead.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", modelPath, err)
	}

	if t.cfg.Metrics.Listen != "" {
		stop := t.serveMetrics(t.cfg.Metrics.Listen)
		defer stop()
	}

	run := func() {
		res, err := t.Translate(ctx, abs)
		if opts.OnResult != nil {
			opts.OnResult(res, err)
		}
	}
	t.logger.Info("watching model", "path", abs)
	run()

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			t.logger.Debug("model changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(opts.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watch error", "error", err)
		case <-timer.C:
			run()
		}
	}
}

// serveMetrics exposes /metrics on addr and returns a shutdown function.
func (t *Translator) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", t.metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		t.logger.Info("metrics server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
