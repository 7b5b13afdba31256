package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nga_reminder/internal/fetcher"
	"nga_reminder/internal/model"
	"nga_reminder/internal/notify"
	"nga_reminder/internal/schedule"
	"nga_reminder/internal/storage"
)

// ErrBusy is returned by CheckTarget when a check of the same target is
// already running.
var ErrBusy = errors.New("check already in progress")

// Fetcher fetches thread pages.
type Fetcher interface {
	FetchMetadata(ctx context.Context, threadID int64) (*fetcher.PageResult, error)
	FetchPages(ctx context.Context, threadID int64, pages []int) ([]*fetcher.PageResult, []fetcher.PageFailure)
}

// Dispatcher delivers an alert through the configured channels.
type Dispatcher interface {
	Send(ctx context.Context, msg notify.Message) []notify.Attempt
}

// Scheduler periodically checks due targets, one goroutine per target.
type Scheduler struct {
	store   storage.Storage
	fetcher Fetcher
	router  Dispatcher
	log     *slog.Logger
	tick    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[int64]bool
	wg       sync.WaitGroup
}

// New creates a Scheduler with a 10-second tick.
func New(store storage.Storage, f Fetcher, router Dispatcher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		fetcher:  f,
		router:   router,
		log:      log,
		tick:     10 * time.Second,
		now:      time.Now,
		inFlight: make(map[int64]bool),
	}
}

// SetTickInterval overrides the default 10-second due check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// SetClock overrides the time source used for due checks.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run starts the scheduler loop, blocking until ctx is cancelled and all
// running checks have returned.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.wg.Wait()

	s.CheckDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDue(ctx)
		}
	}
}

// Wait blocks until all checks started by CheckDue have finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// CheckDue starts a background check for every enabled target that is due
// and not already being checked. It returns the IDs of the started checks.
func (s *Scheduler) CheckDue(ctx context.Context) []int64 {
	targets, err := s.store.ListEnabledTargets(ctx)
	if err != nil {
		s.log.Error("list enabled targets", "error", err)
		return nil
	}

	now := s.now()
	var started []int64
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		if !IsDue(t, now) || !s.acquire(t.ID) {
			continue
		}
		started = append(started, t.ID)

		s.wg.Add(1)
		go func(t model.Target) {
			defer s.wg.Done()
			defer s.release(t.ID)
			s.check(ctx, t)
		}(t)
	}
	return started
}

// RunDue checks every due target concurrently and waits for the results.
func (s *Scheduler) RunDue(ctx context.Context) ([]Result, error) {
	targets, err := s.store.ListEnabledTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled targets: %w", err)
	}

	now := s.now()
	var (
		mu      sync.Mutex
		results []Result
		wg      sync.WaitGroup
	)
	for _, t := range targets {
		if !IsDue(t, now) || !s.acquire(t.ID) {
			continue
		}
		wg.Add(1)
		go func(t model.Target) {
			defer wg.Done()
			defer s.release(t.ID)
			res := s.check(ctx, t)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(t)
	}
	wg.Wait()
	return results, nil
}

// CheckTarget runs a one-off check of a single target regardless of whether
// it is due. Disabled targets are checked too.
func (s *Scheduler) CheckTarget(ctx context.Context, id int64) (Result, error) {
	t, err := s.store.GetTarget(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("get target: %w", err)
	}
	if !s.acquire(id) {
		return Result{ThreadID: id, State: StateChecking}, ErrBusy
	}
	defer s.release(id)

	res := s.check(ctx, *t)
	return res, res.Err
}

// IsDue reports whether enough time has passed since the last check under
// the interval that applies at now.
func IsDue(t model.Target, now time.Time) bool {
	if t.LastCheckedAt == nil {
		return true
	}
	interval := schedule.Resolve(t.BaseInterval, t.Schedule, now)
	return now.Sub(*t.LastCheckedAt) >= interval
}

func (s *Scheduler) acquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) release(id int64) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// Checking reports whether a check of the target is running.
func (s *Scheduler) Checking(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[id]
}
