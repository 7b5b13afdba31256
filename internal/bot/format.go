package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nga_reminder/internal/model"
	"nga_reminder/internal/scheduler"
)

const (
	statusActive = "active"
	statusPaused = "paused"
)

const timeFormat = "2006-01-02 15:04 UTC"

func targetName(t *model.Target) string {
	if t.Title != "" {
		return t.Title
	}
	return fmt.Sprintf("thread %d", t.ID)
}

func targetStatus(t *model.Target) string {
	if t.Enabled {
		return statusActive
	}
	return statusPaused
}

func minutes(d time.Duration) int {
	if d <= 0 {
		d = model.DefaultInterval
	}
	return int(d / time.Minute)
}

// FormatTargetList formats the monitored threads for display.
func FormatTargetList(targets []model.Target) string {
	if len(targets) == 0 {
		return "No threads are monitored yet. Use /add <tid> to add one."
	}
	var b strings.Builder
	b.WriteString("Monitored threads:\n")
	for i := range targets {
		t := &targets[i]
		fmt.Fprintf(&b, "\n#%d %s  (every %d min) [%s]\n", t.ID, targetName(t), minutes(t.BaseInterval), targetStatus(t))
		fmt.Fprintf(&b, "   last seen #%d, notify: %s\n", t.LastSeenPostNumber, t.NotifyFilter)
	}
	return b.String()
}

// FormatTargetInfo formats detailed information about a single target.
func FormatTargetInfo(t *model.Target) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s [%s]\n", t.ID, targetName(t), targetStatus(t))
	fmt.Fprintf(&b, "URL: https://nga.178.com/read.php?tid=%d\n", t.ID)
	fmt.Fprintf(&b, "Interval: every %d min\n", minutes(t.BaseInterval))
	fmt.Fprintf(&b, "Store authors: %s\n", t.StoreFilter)
	fmt.Fprintf(&b, "Notify authors: %s\n", t.NotifyFilter)
	fmt.Fprintf(&b, "Watermark: %d posts, last seen #%d\n", t.LastSeenCount, t.LastSeenPostNumber)
	if t.LastCheckedAt != nil {
		fmt.Fprintf(&b, "Last check: %s\n", t.LastCheckedAt.UTC().Format(timeFormat))
	}
	if len(t.Schedule) > 0 {
		b.WriteString("\nSchedule:\n")
		for _, r := range t.Schedule {
			days := "every day"
			if len(r.Days) > 0 {
				days = strings.Join(r.Days, ",")
			}
			fmt.Fprintf(&b, "  %s %s-%s every %d min", days, r.StartTime, r.EndTime, minutes(r.Interval))
			if r.Description != "" {
				fmt.Fprintf(&b, " (%s)", r.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatCheckResult summarises a manual check.
func FormatCheckResult(t *model.Target, res scheduler.Result, err error) string {
	name := targetName(t)
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		return fmt.Sprintf("#%d \"%s\" is already being checked.", t.ID, name)
	case res.State == scheduler.StateFailed:
		return fmt.Sprintf("Check of #%d \"%s\" failed: %v", t.ID, name, err)
	case res.State == scheduler.StateUnchanged:
		return fmt.Sprintf("No new posts in #%d \"%s\".", t.ID, name)
	}

	var b strings.Builder
	if res.NewPosts == 0 {
		fmt.Fprintf(&b, "No new posts in #%d \"%s\".", t.ID, name)
	} else {
		fmt.Fprintf(&b, "Found %d new post(s) in #%d \"%s\": stored %d, notified %d.",
			res.NewPosts, t.ID, name, res.Stored, res.Notified)
	}
	if len(res.FailedPages) > 0 {
		pages := make([]string, len(res.FailedPages))
		for i, p := range res.FailedPages {
			pages[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(&b, "\nPages %s failed and will be retried.", strings.Join(pages, ", "))
	}
	return b.String()
}

// FormatEvents formats recent event log entries, newest first.
func FormatEvents(events []model.Event) string {
	if len(events) == 0 {
		return "No events recorded."
	}
	var b strings.Builder
	b.WriteString("Recent events:\n")
	for _, e := range events {
		fmt.Fprintf(&b, "\n%s #%d %s", e.CreatedAt.UTC().Format(timeFormat), e.ThreadID, e.Kind)
		if e.PostCount > 0 {
			fmt.Fprintf(&b, " (%d)", e.PostCount)
		}
		if e.Message != "" {
			fmt.Fprintf(&b, ": %s", e.Message)
		}
	}
	return b.String()
}
