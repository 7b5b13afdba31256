package scheduler

import (
	"context"

	"nga_reminder/internal/fetcher"
	"nga_reminder/internal/model"
)

// Tip reads a thread and returns the watermark of its newest post, so a
// target added with it only alerts on posts written afterwards. The returned
// page carries the thread metadata.
func Tip(ctx context.Context, f Fetcher, threadID int64) (model.Watermark, *fetcher.PageResult, error) {
	meta, err := f.FetchMetadata(ctx, threadID)
	if err != nil {
		return model.Watermark{}, nil, err
	}

	last := meta
	if meta.TotalPages > 1 {
		pages, failures := f.FetchPages(ctx, threadID, []int{meta.TotalPages})
		if len(failures) > 0 {
			return model.Watermark{}, nil, failures[0].Err
		}
		if len(pages) > 0 {
			last = pages[0]
		}
	}

	wm := model.Watermark{Count: meta.TotalCount, PostsPerPage: meta.PostsPerPage}
	for _, p := range last.Posts {
		wm.SequenceNumber = max(wm.SequenceNumber, p.SequenceNumber)
	}
	return wm, meta, nil
}
