package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nga_reminder/internal/model"
)

type fakeImporter struct {
	mu      sync.Mutex
	targets map[int64]model.Target
	err     error
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{targets: make(map[int64]model.Target)}
}

func (f *fakeImporter) ImportTarget(_ context.Context, t *model.Target) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, exists := f.targets[t.ID]
	f.targets[t.ID] = *t
	return !exists, nil
}

func (f *fakeImporter) ids() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.targets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	writeFile(t, path, "threads:\n  - tid: 1\n  - tid: 2\n")

	store := newFakeImporter()
	st, err := ImportFile(ctx, store, path)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if diff := cmp.Diff(Stats{Created: 2}, st); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	st, err = ImportFile(ctx, store, path)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if diff := cmp.Diff(Stats{Updated: 2}, st); diff != "" {
		t.Errorf("second stats mismatch (-want +got):\n%s", diff)
	}
}

func TestImportStopsOnStoreError(t *testing.T) {
	store := newFakeImporter()
	store.err = errors.New("disk full")

	_, err := Import(context.Background(), store, []model.Target{{ID: 1}})
	if !errors.Is(err, store.err) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestWatcherReimportsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	writeFile(t, path, "threads:\n  - tid: 1\n")

	store := newFakeImporter()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(path, store, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The watch may not be registered yet, so keep rewriting until it is seen.
	want := []int64{1, 2}
	deadline := time.Now().Add(5 * time.Second)
	for !slices.Equal(store.ids(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("targets not reimported, got %v", store.ids())
		}
		writeFile(t, path, "threads:\n  - tid: 1\n  - tid: 2\n")
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherIgnoresInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	writeFile(t, path, "threads:\n  - tid: 1\n")

	store := newFakeImporter()
	w := New(path, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// reload is what the debounce timer runs after a change.
	writeFile(t, path, "threads: [not valid")
	w.reload(context.Background())
	if got := store.ids(); len(got) != 0 {
		t.Errorf("invalid file imported targets %v", got)
	}

	writeFile(t, path, "threads:\n  - tid: 3\n")
	w.reload(context.Background())
	if diff := cmp.Diff([]int64{3}, store.ids()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}
