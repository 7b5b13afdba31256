// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultPostsPerPage is the page size NGA uses when a payload omits it.
const DefaultPostsPerPage = 20

// DefaultInterval applies to targets created without a check interval.
const DefaultInterval = 300 * time.Second

// Target is one monitored thread together with its watermark and filters.
type Target struct {
	ID                 int64
	Title              string
	PostsPerPage       int
	LastSeenCount      int
	LastSeenPostNumber int
	LastCheckedAt      *time.Time
	BaseInterval       time.Duration
	Schedule           []ScheduleRule
	StoreFilter        AuthorFilter
	NotifyFilter       AuthorFilter
	Enabled            bool
	CreatedAt          time.Time
}

// Watermark is the durable cursor of a target.
type Watermark struct {
	Count          int
	SequenceNumber int
	PostsPerPage   int
}

// ScheduleRule overrides the base interval inside a weekly time window.
type ScheduleRule struct {
	Days        []string
	StartTime   string
	EndTime     string
	Interval    time.Duration
	Description string
}

// FilterMode selects how an AuthorFilter matches.
type FilterMode string

// Supported filter modes.
const (
	FilterAll  FilterMode = "all"
	FilterNone FilterMode = "none"
	FilterList FilterMode = "list"
)

// AuthorFilter selects posts by author uid.
type AuthorFilter struct {
	Mode    FilterMode
	Authors []int64
}

// AllAuthors matches every post.
func AllAuthors() AuthorFilter { return AuthorFilter{Mode: FilterAll} }

// NoAuthors matches nothing.
func NoAuthors() AuthorFilter { return AuthorFilter{Mode: FilterNone} }

// Authors matches the given uids.
func Authors(ids ...int64) AuthorFilter {
	return AuthorFilter{Mode: FilterList, Authors: ids}
}

// Contains reports whether the filter selects the given author.
func (f AuthorFilter) Contains(authorID int64) bool {
	switch f.Mode {
	case FilterAll:
		return true
	case FilterList:
		return slices.Contains(f.Authors, authorID)
	default:
		return false
	}
}

// String returns the textual form: "all", "none" or a comma separated uid list.
func (f AuthorFilter) String() string {
	switch f.Mode {
	case FilterAll:
		return string(FilterAll)
	case FilterList:
		parts := make([]string, len(f.Authors))
		for i, id := range f.Authors {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ",")
	default:
		return string(FilterNone)
	}
}

// ParseAuthorFilter parses the textual form produced by String.
// An empty string yields def.
func ParseAuthorFilter(s string, def AuthorFilter) (AuthorFilter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return def, nil
	case string(FilterAll):
		return AllAuthors(), nil
	case string(FilterNone):
		return NoAuthors(), nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return AuthorFilter{}, fmt.Errorf("invalid author uid %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return NoAuthors(), nil
	}
	return Authors(ids...), nil
}

// Post is a single floor of a thread.
type Post struct {
	ID             int64
	ThreadID       int64
	AuthorID       int64
	AuthorName     string
	SequenceNumber int
	Page           int
	Timestamp      int64
	PostDate       string
	Content        string
	FirstSeenAt    time.Time
}

// Thread caches the metadata reported by page 1.
type Thread struct {
	ID         int64
	Title      string
	AuthorName string
	AuthorID   int64
	TotalPosts int
	TotalPages int
	UpdatedAt  time.Time
}

// EventKind classifies an entry of the monitoring event log.
type EventKind string

// Event kinds.
const (
	EventCheck        EventKind = "check"
	EventNewPosts     EventKind = "new_posts"
	EventError        EventKind = "error"
	EventNotify       EventKind = "notify"
	EventNotifyFailed EventKind = "notify_failed"
)

// Event is one entry of the monitoring event log.
type Event struct {
	ID        int64
	ThreadID  int64
	Kind      EventKind
	PostCount int
	Message   string
	CreatedAt time.Time
}
