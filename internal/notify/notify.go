// Package notify formats new-post alerts and delivers them through an ordered
// list of channels, falling back to the next channel when one fails.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"nga_reminder/internal/model"
	"nga_reminder/internal/monitorerr"
)

const excerptRunes = 200

// Message is a channel-independent alert.
type Message struct {
	Title string
	Body  string
	URL   string
}

// Notifier is a single delivery channel.
type Notifier interface {
	Name() string
	// Configured reports whether the channel can deliver at all.
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Outcome of one delivery attempt.
type Outcome string

// Attempt outcomes.
const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Attempt records what happened on one channel.
type Attempt struct {
	Channel string
	Outcome Outcome
	Err     error
}

// Router tries channels in order until one delivers.
type Router struct {
	channels []Notifier
	log      *slog.Logger
}

// NewRouter creates a Router. Channel order is priority order.
func NewRouter(log *slog.Logger, channels ...Notifier) *Router {
	return &Router{channels: channels, log: log}
}

// Channels returns the channel names in priority order.
func (r *Router) Channels() []string {
	names := make([]string, len(r.channels))
	for i, c := range r.channels {
		names[i] = c.Name()
	}
	return names
}

// Send delivers msg through the first channel that succeeds. Every attempt,
// including skipped unconfigured channels, is returned.
func (r *Router) Send(ctx context.Context, msg Message) []Attempt {
	var attempts []Attempt
	for _, c := range r.channels {
		if !c.Configured() {
			attempts = append(attempts, Attempt{Channel: c.Name(), Outcome: OutcomeSkipped})
			continue
		}
		if err := c.Send(ctx, msg); err != nil {
			nerr := &monitorerr.NotifyError{Channel: c.Name(), Err: err}
			r.log.Warn("notify channel failed", "channel", c.Name(), "error", err)
			attempts = append(attempts, Attempt{Channel: c.Name(), Outcome: OutcomeFailed, Err: nerr})
			continue
		}
		attempts = append(attempts, Attempt{Channel: c.Name(), Outcome: OutcomeDelivered})
		return attempts
	}
	return attempts
}

// Delivered reports whether any attempt succeeded.
func Delivered(attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Outcome == OutcomeDelivered {
			return true
		}
	}
	return false
}

// Summary renders attempts as "bark=failed, console=delivered".
func Summary(attempts []Attempt) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = a.Channel + "=" + string(a.Outcome)
	}
	return strings.Join(parts, ", ")
}

// PostURL links to a post on the forum.
func PostURL(post model.Post) string {
	return fmt.Sprintf("https://nga.178.com/read.php?tid=%d&page=%d#pid%dAnchor", post.ThreadID, post.Page, post.ID)
}

// FormatMessage builds the alert for a new post of a target.
func FormatMessage(target model.Target, post model.Post) Message {
	title := target.Title
	if title == "" {
		title = fmt.Sprintf("thread %d", target.ID)
	}
	return Message{
		Title: "New Post: " + title,
		Body:  fmt.Sprintf("%s (#%d):\n%s", post.AuthorName, post.SequenceNumber, Excerpt(post.Content, excerptRunes)),
		URL:   PostURL(post),
	}
}

// Excerpt truncates s to at most n runes, appending "..." when cut.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
