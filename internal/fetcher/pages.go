package fetcher

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"nga_reminder/internal/monitorerr"
)

// PageSource fetches a single page of a thread.
type PageSource interface {
	FetchPage(ctx context.Context, threadID int64, page int) (*PageResult, error)
}

// Limiter gates every outgoing page request.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// PageFailure records a page that could not be fetched.
type PageFailure struct {
	Page int
	Err  error
}

// DefaultWorkers is the pool width used when none is configured.
const DefaultWorkers = 5

// PageFetcher fetches page batches concurrently through a shared limiter.
type PageFetcher struct {
	source  PageSource
	limiter Limiter
	workers int
}

// NewPageFetcher creates a PageFetcher running at most workers fetches at once.
func NewPageFetcher(source PageSource, limiter Limiter, workers int) *PageFetcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &PageFetcher{source: source, limiter: limiter, workers: workers}
}

// FetchMetadata fetches page 1, which carries the thread totals. A failure is
// returned as a *monitorerr.MetadataError.
func (f *PageFetcher) FetchMetadata(ctx context.Context, threadID int64) (*PageResult, error) {
	res, err := f.fetch(ctx, threadID, 1)
	if err != nil {
		return nil, &monitorerr.MetadataError{ThreadID: threadID, Err: err}
	}
	return res, nil
}

// FetchPages fetches the given pages. A failed page does not stop the others;
// results come back sorted by page and failures are returned separately as
// *monitorerr.FetchError values.
func (f *PageFetcher) FetchPages(ctx context.Context, threadID int64, pages []int) ([]*PageResult, []PageFailure) {
	var (
		mu       sync.Mutex
		results  []*PageResult
		failures []PageFailure
	)

	var g errgroup.Group
	g.SetLimit(f.workers)
	for _, page := range pages {
		g.Go(func() error {
			res, err := f.fetch(ctx, threadID, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, PageFailure{
					Page: page,
					Err:  &monitorerr.FetchError{ThreadID: threadID, Page: page, Err: err},
				})
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(results, func(a, b *PageResult) int { return a.Page - b.Page })
	slices.SortFunc(failures, func(a, b PageFailure) int { return a.Page - b.Page })
	return results, failures
}

func (f *PageFetcher) fetch(ctx context.Context, threadID int64, page int) (*PageResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return f.source.FetchPage(ctx, threadID, page)
}
