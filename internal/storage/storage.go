// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"nga_reminder/internal/model"
)

// ErrNotFound is returned when a target does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when creating a target that is already monitored.
var ErrExists = errors.New("already exists")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateTarget(ctx context.Context, t *model.Target) error
	ImportTarget(ctx context.Context, t *model.Target) (created bool, err error)
	GetTarget(ctx context.Context, id int64) (*model.Target, error)
	ListTargets(ctx context.Context) ([]model.Target, error)
	ListEnabledTargets(ctx context.Context) ([]model.Target, error)
	UpdateTarget(ctx context.Context, t *model.Target) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	DeleteTarget(ctx context.Context, id int64) error
	TouchChecked(ctx context.Context, id int64, at time.Time) error

	UpsertThread(ctx context.Context, th model.Thread) error
	UpsertPostsIfAbsent(ctx context.Context, posts []model.Post) (int, error)
	GetPostsAfter(ctx context.Context, threadID int64, afterSeq int, authorID int64) ([]model.Post, error)

	MarkDelivered(ctx context.Context, post model.Post, at time.Time) error
	DeliveredAfter(ctx context.Context, threadID int64, afterSeq int) (map[int64]bool, error)

	GetWatermark(ctx context.Context, id int64) (model.Watermark, error)
	SetWatermark(ctx context.Context, id int64, wm model.Watermark, checkedAt time.Time) error
	ResetWatermark(ctx context.Context, id int64, seq int) error

	RecordEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context, threadID int64, limit int) ([]model.Event, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
