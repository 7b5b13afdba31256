// Package housekeeping runs periodic maintenance on the monitoring database.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// EventPruner deletes event log entries older than a cutoff.
type EventPruner interface {
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// Pruner trims the event log to a retention window.
type Pruner struct {
	store     EventPruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewPruner creates a Pruner keeping events younger than retention.
func NewPruner(store EventPruner, retention time.Duration, log *slog.Logger) *Pruner {
	return &Pruner{store: store, retention: retention, now: time.Now, log: log}
}

// Prune deletes events older than the retention window and returns how many
// were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.PruneEvents(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	p.log.Info("events pruned", "deleted", n, "before", cutoff.UTC().Format(time.RFC3339))
	return n, nil
}

// Schedule registers Prune on a cron expression such as "@daily" or "0 4 * * *".
// The returned cron is not started.
func (p *Pruner) Schedule(ctx context.Context, expr string) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cronLogger{p.log}))
	_, err := c.AddFunc(expr, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.log.Error("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule prune %q: %w", expr, err)
	}
	return c, nil
}

// cronLogger adapts slog for cron.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
