// Package watcher ingests files dropped into a hot folder. Writes are
// debounced per path so a file is only picked up once it stops
// changing.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/ports/driving"
	"github.com/crateview/docquery/internal/extractors"
)

// DefaultDebounce is how long a file must stay quiet before ingestion.
const DefaultDebounce = 500 * time.Millisecond

// Watcher feeds new files from a directory into the ingest service.
type Watcher struct {
	ingest   driving.IngestService
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a new watcher.
func New(ingest driving.IngestService, log *zap.Logger, opts ...Option) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{
		ingest:   ingest,
		log:      log,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks processing events for dir until the context is
// cancelled. Files already in the directory are ingested on start.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if err := w.ingestExisting(ctx, dir); err != nil {
		return err
	}

	w.log.Info("watching folder", zap.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !supported(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// ingestExisting picks up files that were already in the folder.
func (w *Watcher) ingestExisting(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if supported(path) {
			w.ingestFile(ctx, path)
		}
	}
	return nil
}

// schedule (re)arms the debounce timer for a path. Every new write
// pushes ingestion back by the full quiet period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.ingestFile(ctx, path)
	})
}

// ingestFile reads and ingests a single file.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("cannot read dropped file", zap.String("path", path), zap.Error(err))
		return
	}

	results, err := w.ingest.IngestBatch(ctx, []driving.Upload{{
		Filename: filepath.Base(path),
		Data:     data,
	}})
	if err != nil {
		w.log.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	for _, res := range results {
		if res.Err != nil {
			w.log.Warn("file rejected",
				zap.String("path", path),
				zap.Error(res.Err))
			continue
		}
		w.log.Info("file ingested from folder",
			zap.String("path", path),
			zap.String("document_id", res.Document.ID),
			zap.Int("chunks", res.ChunksIndexed))
	}
}

// supported reports whether the file extension maps to a known
// content type.
func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return extractors.ResolveMIMEType(path, "") != ""
}
