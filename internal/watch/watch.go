// Package watch imports the targets file into the store and re-imports it
// whenever the file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"nga_reminder/internal/config"
	"nga_reminder/internal/model"
)

const debounceDelay = 250 * time.Millisecond

// Importer creates or updates targets without lowering their watermark.
type Importer interface {
	ImportTarget(ctx context.Context, t *model.Target) (bool, error)
}

// Stats summarises one import.
type Stats struct {
	Created int
	Updated int
}

// ImportFile loads the targets file and imports every entry.
func ImportFile(ctx context.Context, store Importer, path string) (Stats, error) {
	targets, err := config.LoadTargets(path)
	if err != nil {
		return Stats{}, err
	}
	return Import(ctx, store, targets)
}

// Import writes targets into the store.
func Import(ctx context.Context, store Importer, targets []model.Target) (Stats, error) {
	var st Stats
	for i := range targets {
		created, err := store.ImportTarget(ctx, &targets[i])
		if err != nil {
			return st, fmt.Errorf("import target %d: %w", targets[i].ID, err)
		}
		if created {
			st.Created++
		} else {
			st.Updated++
		}
	}
	return st, nil
}

// Watcher re-imports the targets file after it changes.
type Watcher struct {
	path  string
	store Importer
	log   *slog.Logger
}

// New creates a Watcher for the targets file at path.
func New(path string, store Importer, log *slog.Logger) *Watcher {
	return &Watcher{path: path, store: store, log: log}
}

// Run watches the directory holding the targets file until ctx is cancelled.
// Editors often replace files instead of writing them in place, so the
// directory is watched rather than the file itself.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Join(dir, filepath.Base(w.path))

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching targets file", "path", w.path)

	// debounce to avoid partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, func() { w.reload(ctx) })
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == file && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.log.Debug("targets file changed", "op", ev.Op.String())
				debounce()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch targets file", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	st, err := ImportFile(ctx, w.store, w.path)
	if err != nil {
		w.log.Warn("reload targets file", "path", w.path, "error", err)
		return
	}
	w.log.Info("reloaded targets file", "created", st.Created, "updated", st.Updated)
}
