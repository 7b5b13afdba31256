// Package filter decides, per post, whether it is persisted and whether it
// triggers a notification.
package filter

import "nga_reminder/internal/model"

// Decision is the outcome of classifying a post against a target.
type Decision struct {
	Store  bool
	Notify bool
}

// Classify applies the target's store and notify filters to a post.
// The two decisions are independent: a post may be stored without an alert,
// and a target may alert on authors whose posts it does not store.
func Classify(post model.Post, target model.Target) Decision {
	return Decision{
		Store:  target.StoreFilter.Mode != model.FilterNone && target.StoreFilter.Contains(post.AuthorID),
		Notify: target.NotifyFilter.Mode != model.FilterNone && target.NotifyFilter.Contains(post.AuthorID),
	}
}

// Split partitions posts into those to store and those to notify on,
// preserving input order.
func Split(posts []model.Post, target model.Target) (store, notify []model.Post) {
	for _, p := range posts {
		d := Classify(p, target)
		if d.Store {
			store = append(store, p)
		}
		if d.Notify {
			notify = append(notify, p)
		}
	}
	return store, notify
}

// After returns the posts whose sequence number is beyond watermark.
func After(posts []model.Post, watermark int) []model.Post {
	var out []model.Post
	for _, p := range posts {
		if p.SequenceNumber > watermark {
			out = append(out, p)
		}
	}
	return out
}
