// Package watch observes the directories holding configured workbooks and
// triggers cache refreshes when a tracked file changes on disk.
//
// Events arrive from fsnotify on a dedicated goroutine, outside the request
// path. Bursts are collapsed by a debounce window, events produced by this
// service's own saves are suppressed via the write guard, and a short settle
// delay lets the external writer finish flushing before the re-read starts.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sheetboard/sheetboard/internal/core"
)

// Watcher drives reloads from filesystem events. Run owns all mutable state,
// so no locking is needed beyond what core provides.
type Watcher struct {
	fsw      *fsnotify.Watcher
	sources  *core.Sources
	guard    *core.WriteGuard
	pipeline *core.Pipeline

	debounce time.Duration
	settle   time.Duration

	lastReload time.Time
}

// New creates a watcher over the distinct parent directories of the
// configured sources. A directory that cannot be watched (missing network
// share, say) is logged and skipped; the watcher still covers the rest.
func New(sources *core.Sources, guard *core.WriteGuard, pipeline *core.Pipeline, debounce, settle time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, p := range sources.Paths() {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fsw.Add(dir); err != nil {
			slog.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		slog.Info("watching directory", "dir", dir)
	}

	return &Watcher{
		fsw:      fsw,
		sources:  sources,
		guard:    guard,
		pipeline: pipeline,
		debounce: debounce,
		settle:   settle,
	}, nil
}

// Run processes events until the context is cancelled or the watcher is
// closed. Individual failures are logged and never stop the loop.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher, which ends Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if !core.AllowedExtension(ev.Name) {
		return
	}
	if core.IsEditorArtifact(filepath.Base(ev.Name)) {
		return
	}
	if !w.sources.Contains(ev.Name) {
		return
	}

	// A save's own rewrite must not re-trigger ingestion; it reloads itself
	// after releasing the guard. Deletes are never our own doing, so they
	// bypass the suppression and converge the cache toward the missing file.
	isRemove := ev.Has(fsnotify.Remove)
	if !isRemove && w.guard.Active() {
		slog.Debug("ignoring change during write operation", "file", filepath.Base(ev.Name))
		return
	}

	if time.Since(w.lastReload) <= w.debounce {
		return
	}
	w.lastReload = time.Now()

	slog.Info("detected change", "file", filepath.Base(ev.Name), "op", ev.Op.String())

	// Blocking here is fine: this goroutine owns nothing anyone waits on.
	timer := time.NewTimer(w.settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}

	w.pipeline.AcceptAndPublish(ctx)
}
