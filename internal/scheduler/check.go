package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"nga_reminder/internal/diff"
	"nga_reminder/internal/fetcher"
	"nga_reminder/internal/filter"
	"nga_reminder/internal/model"
	"nga_reminder/internal/monitorerr"
	"nga_reminder/internal/notify"
)

// State is the lifecycle position of a target check.
type State string

// Target states. Every check ends in Updated, Unchanged or Failed and the
// target returns to Idle afterwards.
const (
	StateIdle      State = "idle"
	StateDue       State = "due"
	StateChecking  State = "checking"
	StateUpdated   State = "updated"
	StateUnchanged State = "unchanged"
	StateFailed    State = "failed"
)

// Result describes the outcome of one target check.
type Result struct {
	ThreadID    int64
	State       State
	NewPosts    int
	Stored      int
	Notified    int
	FailedPages []int
	Watermark   model.Watermark
	Err         error
}

func (s *Scheduler) check(ctx context.Context, t model.Target) Result {
	res := Result{ThreadID: t.ID, State: StateChecking}
	now := s.now()
	log := s.log.With("thread_id", t.ID)
	log.Debug("checking target")

	meta, err := s.fetcher.FetchMetadata(ctx, t.ID)
	if err != nil {
		return s.fail(ctx, t, res, err)
	}
	if err := s.store.UpsertThread(ctx, meta.Thread()); err != nil {
		return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "upsert thread", Err: err})
	}
	if meta.Title != "" {
		t.Title = meta.Title
	}

	wm, err := s.store.GetWatermark(ctx, t.ID)
	if err != nil {
		return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "get watermark", Err: err})
	}
	res.Watermark = wm

	perPage := meta.PostsPerPage
	if wm.PostsPerPage > 0 && wm.PostsPerPage != perPage {
		log.Warn("posts per page changed", "stored", wm.PostsPerPage, "observed", perPage)
	}

	rng, changed := diff.ComputePageRange(wm.Count, perPage, meta.TotalCount, meta.TotalPages)
	if !changed {
		if err := s.store.TouchChecked(ctx, t.ID, now); err != nil {
			return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "touch checked", Err: err})
		}
		res.State = StateUnchanged
		s.record(ctx, model.Event{ThreadID: t.ID, Kind: model.EventCheck, Message: "no change"})
		log.Debug("target unchanged", "count", meta.TotalCount)
		return res
	}

	pages, failures := s.fetchRange(ctx, t.ID, rng, meta)
	for _, f := range failures {
		res.FailedPages = append(res.FailedPages, f.Page)
		log.Warn("fetch page", "page", f.Page, "error", f.Err)
	}

	// Only pages before the first failure are confirmed; posts past a gap are
	// stored but the watermark does not move over the gap.
	confirmedEnd := rng.End
	if len(failures) > 0 {
		confirmedEnd = failures[0].Page - 1
	}

	var fetched []model.Post
	newSeq := wm.SequenceNumber
	for _, p := range pages {
		fetched = append(fetched, p.Posts...)
		if p.Page > confirmedEnd {
			continue
		}
		for _, post := range p.Posts {
			newSeq = max(newSeq, post.SequenceNumber)
		}
	}

	fresh := filter.After(fetched, wm.SequenceNumber)
	toStore, toNotify := filter.Split(fresh, t)

	inserted, err := s.store.UpsertPostsIfAbsent(ctx, toStore)
	if err != nil {
		return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "upsert posts", Err: err})
	}
	res.Stored = inserted

	newCount := meta.TotalCount
	if len(failures) > 0 {
		newCount = min(meta.TotalCount, confirmedEnd*perPage)
	}
	newCount = max(newCount, wm.Count)

	// A check whose commit failed may have alerted already; those posts are
	// not sent twice.
	delivered, err := s.store.DeliveredAfter(ctx, t.ID, wm.SequenceNumber)
	if err != nil {
		return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "get deliveries", Err: err})
	}
	for _, post := range toNotify {
		if post.SequenceNumber > newSeq {
			continue
		}
		if delivered[post.ID] {
			log.Debug("alert already delivered", "post_id", post.ID)
			continue
		}
		if s.dispatch(ctx, t, post) {
			res.Notified++
		}
	}

	// Posts are persisted at this point, so the commit must not be lost to a
	// shutdown that arrives in between.
	next := model.Watermark{Count: newCount, SequenceNumber: newSeq, PostsPerPage: perPage}
	if err := s.store.SetWatermark(context.WithoutCancel(ctx), t.ID, next, now); err != nil {
		return s.fail(ctx, t, res, &monitorerr.StoreError{Op: "set watermark", Err: err})
	}
	res.Watermark = next

	for _, post := range fresh {
		if post.SequenceNumber <= newSeq {
			res.NewPosts++
		}
	}
	res.State = StateUpdated

	if len(failures) > 0 {
		err := pageErrors(failures)
		res.Err = err
		s.record(ctx, model.Event{ThreadID: t.ID, Kind: model.EventError, PostCount: res.NewPosts, Message: err.Error()})
	}
	if res.NewPosts > 0 {
		s.record(ctx, model.Event{
			ThreadID:  t.ID,
			Kind:      model.EventNewPosts,
			PostCount: res.NewPosts,
			Message:   fmt.Sprintf("pages %d-%d, stored %d, notified %d", rng.Start, rng.End, res.Stored, res.Notified),
		})
		log.Info("found new posts", "count", res.NewPosts, "stored", res.Stored, "notified", res.Notified,
			"last_seen_post_number", newSeq)
	} else {
		s.record(ctx, model.Event{ThreadID: t.ID, Kind: model.EventCheck, Message: "no new posts"})
	}
	return res
}

// fetchRange returns the pages of rng, reusing the metadata page when the
// range starts at page 1.
func (s *Scheduler) fetchRange(ctx context.Context, id int64, rng diff.PageRange, meta *fetcher.PageResult) ([]*fetcher.PageResult, []fetcher.PageFailure) {
	var have []*fetcher.PageResult
	wanted := rng.Pages()
	if rng.Contains(meta.Page) {
		have = append(have, meta)
		wanted = slices.DeleteFunc(wanted, func(p int) bool { return p == meta.Page })
	}
	if len(wanted) == 0 {
		return have, nil
	}
	results, failures := s.fetcher.FetchPages(ctx, id, wanted)
	results = append(have, results...)
	slices.SortFunc(results, func(a, b *fetcher.PageResult) int { return a.Page - b.Page })
	return results, failures
}

func (s *Scheduler) dispatch(ctx context.Context, t model.Target, post model.Post) bool {
	attempts := s.router.Send(ctx, notify.FormatMessage(t, post))
	kind := model.EventNotify
	if !notify.Delivered(attempts) {
		kind = model.EventNotifyFailed
		s.log.Warn("notification not delivered", "thread_id", t.ID, "post_id", post.ID, "attempts", notify.Summary(attempts))
	}
	s.record(ctx, model.Event{
		ThreadID:  t.ID,
		Kind:      kind,
		PostCount: 1,
		Message:   fmt.Sprintf("post %d (#%d): %s", post.ID, post.SequenceNumber, notify.Summary(attempts)),
	})
	if kind != model.EventNotify {
		return false
	}
	if err := s.store.MarkDelivered(context.WithoutCancel(ctx), post, s.now()); err != nil {
		s.log.Error("mark delivered", "thread_id", t.ID, "post_id", post.ID, "error", err)
	}
	return true
}

func (s *Scheduler) fail(ctx context.Context, t model.Target, res Result, err error) Result {
	res.State = StateFailed
	res.Err = err
	s.log.Error("check target", "thread_id", t.ID, "error", err)

	// The regular interval doubles as the cool-down before the next attempt.
	if terr := s.store.TouchChecked(context.WithoutCancel(ctx), t.ID, s.now()); terr != nil {
		s.log.Error("touch checked", "thread_id", t.ID, "error", terr)
	}
	s.record(ctx, model.Event{ThreadID: t.ID, Kind: model.EventError, Message: err.Error()})
	return res
}

func (s *Scheduler) record(ctx context.Context, e model.Event) {
	if err := s.store.RecordEvent(context.WithoutCancel(ctx), &e); err != nil {
		s.log.Error("record event", "thread_id", e.ThreadID, "kind", e.Kind, "error", err)
	}
}

func pageErrors(failures []fetcher.PageFailure) error {
	pages := make([]string, len(failures))
	errs := make([]error, len(failures))
	for i, f := range failures {
		pages[i] = fmt.Sprint(f.Page)
		errs[i] = f.Err
	}
	return fmt.Errorf("pages %s failed: %w", strings.Join(pages, ","), errors.Join(errs...))
}
