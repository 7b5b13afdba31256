package housekeeping

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeStore struct {
	before []time.Time
	n      int64
	err    error
}

func (f *fakeStore) PruneEvents(_ context.Context, before time.Time) (int64, error) {
	f.before = append(f.before, before)
	return f.n, f.err
}

func newTestPruner(store EventPruner) *Pruner {
	p := NewPruner(store, 48*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPrune(t *testing.T) {
	store := &fakeStore{n: 7}
	p := newTestPruner(store)

	n, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if diff := cmp.Diff(int64(7), n); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	want := []time.Time{time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, store.before); diff != "" {
		t.Errorf("cutoff mismatch (-want +got):\n%s", diff)
	}
}

func TestPruneError(t *testing.T) {
	p := newTestPruner(&fakeStore{err: errors.New("disk full")})
	if _, err := p.Prune(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchedule(t *testing.T) {
	p := newTestPruner(&fakeStore{})

	c, err := p.Schedule(context.Background(), "@daily")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if diff := cmp.Diff(1, len(c.Entries())); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	if _, err := p.Schedule(context.Background(), "every now and then"); err == nil {
		t.Error("expected error for invalid expression")
	}
}
