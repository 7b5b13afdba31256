package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"nga_reminder/internal/model"
	"nga_reminder/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB

	// locks serializes watermark writes per target.
	locks sync.Map
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) lock(id int64) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

const targetColumns = `id, title, posts_per_page, last_seen_count, last_seen_post_number, last_checked_at,
	interval_seconds, schedule, store_filter, notify_filter, enabled, created_at`

// CreateTarget inserts a new target and populates its CreatedAt.
func (s *SQLite) CreateTarget(ctx context.Context, t *model.Target) error {
	args, err := targetArgs(t)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO targets (id, title, posts_per_page, last_seen_count, last_seen_post_number,
		     interval_seconds, schedule, store_filter, notify_filter, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(args, now)...,
	)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("target %d: %w", t.ID, ErrExists)
	}
	t.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ImportTarget creates the target or applies the configuration the targets
// file declares for it. On an existing target only the fields whose declared
// value changed since the previous import are written, so edits made through
// the bot or the CLI survive reloads of an unchanged file. The stored
// watermark is only ever raised by an import, never lowered.
func (s *SQLite) ImportTarget(ctx context.Context, t *model.Target) (bool, error) {
	unlock := s.lock(t.ID)
	defer unlock()

	args, err := targetArgs(t)
	if err != nil {
		return false, err
	}
	next := declaration{
		interval:     args[5].(int),
		schedule:     args[6].(string),
		storeFilter:  args[7].(string),
		notifyFilter: args[8].(string),
		enabled:      args[9].(int),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var prev *declaration
	var d declaration
	err = tx.QueryRowContext(ctx,
		`SELECT interval_seconds, schedule, store_filter, notify_filter, enabled FROM target_imports WHERE target_id = ?`, t.ID,
	).Scan(&d.interval, &d.schedule, &d.storeFilter, &d.notifyFilter, &d.enabled)
	switch {
	case err == nil:
		prev = &d
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("get import: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO targets (id, title, posts_per_page, last_seen_count, last_seen_post_number,
		     interval_seconds, schedule, store_filter, notify_filter, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(args, now)...,
	)
	if err != nil {
		return false, fmt.Errorf("import target: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	created := n > 0

	if !created {
		if _, err := tx.ExecContext(ctx,
			`UPDATE targets SET
			     last_seen_count       = MAX(last_seen_count, ?),
			     last_seen_post_number = MAX(last_seen_post_number, ?)
			 WHERE id = ?`,
			t.LastSeenCount, t.LastSeenPostNumber, t.ID,
		); err != nil {
			return false, fmt.Errorf("raise watermark: %w", err)
		}
		if sets, vals := next.changedSince(prev); len(sets) > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE targets SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
				append(vals, t.ID)...,
			); err != nil {
				return false, fmt.Errorf("update target: %w", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO target_imports (target_id, interval_seconds, schedule, store_filter, notify_filter, enabled)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(target_id) DO UPDATE SET
		     interval_seconds = excluded.interval_seconds,
		     schedule         = excluded.schedule,
		     store_filter     = excluded.store_filter,
		     notify_filter    = excluded.notify_filter,
		     enabled          = excluded.enabled`,
		t.ID, next.interval, next.schedule, next.storeFilter, next.notifyFilter, next.enabled,
	); err != nil {
		return false, fmt.Errorf("save import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit import: %w", err)
	}
	return created, nil
}

// declaration is the file-controlled part of a target row.
type declaration struct {
	interval     int
	schedule     string
	storeFilter  string
	notifyFilter string
	enabled      int
}

// changedSince returns SET clauses for the fields that differ from prev. A
// nil prev means the file never declared the target, so every field applies.
func (d declaration) changedSince(prev *declaration) ([]string, []any) {
	fields := []struct {
		column      string
		value, last any
	}{
		{"interval_seconds", d.interval, nil},
		{"schedule", d.schedule, nil},
		{"store_filter", d.storeFilter, nil},
		{"notify_filter", d.notifyFilter, nil},
		{"enabled", d.enabled, nil},
	}
	if prev != nil {
		fields[0].last = prev.interval
		fields[1].last = prev.schedule
		fields[2].last = prev.storeFilter
		fields[3].last = prev.notifyFilter
		fields[4].last = prev.enabled
	}

	var (
		sets []string
		vals []any
	)
	for _, f := range fields {
		if f.value == f.last {
			continue
		}
		sets = append(sets, f.column+" = ?")
		vals = append(vals, f.value)
	}
	return sets, vals
}

// GetTarget returns a single target by its thread ID.
func (s *SQLite) GetTarget(ctx context.Context, id int64) (*model.Target, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = ?`, id)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target %d: %w", id, ErrNotFound)
	}
	return t, err
}

// ListTargets returns all targets ordered by ID.
func (s *SQLite) ListTargets(ctx context.Context) ([]model.Target, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTargets(rows)
}

// ListEnabledTargets returns the targets the scheduler considers.
func (s *SQLite) ListEnabledTargets(ctx context.Context) ([]model.Target, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+targetColumns+` FROM targets WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query enabled targets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTargets(rows)
}

// UpdateTarget persists operator-editable fields. The watermark is not touched.
func (s *SQLite) UpdateTarget(ctx context.Context, t *model.Target) error {
	schedule, err := encodeSchedule(t.Schedule)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE targets SET title = ?, interval_seconds = ?, schedule = ?, store_filter = ?, notify_filter = ?, enabled = ?
		 WHERE id = ?`,
		t.Title, int(t.BaseInterval/time.Second), schedule, t.StoreFilter.String(), t.NotifyFilter.String(),
		boolToInt(t.Enabled), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update target: %w", err)
	}
	return expectRow(res, t.ID)
}

// SetEnabled pauses or resumes a target.
func (s *SQLite) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE targets SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	return expectRow(res, id)
}

// DeleteTarget removes a target together with its posts, thread and events.
func (s *SQLite) DeleteTarget(ctx context.Context, id int64) error {
	unlock := s.lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM target_imports WHERE target_id = ?`, id); err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("delete deliveries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

// TouchChecked records a check that did not move the watermark.
func (s *SQLite) TouchChecked(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE targets SET last_checked_at = ? WHERE id = ?`, at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("touch checked: %w", err)
	}
	return nil
}

// UpsertThread stores the latest metadata of a thread and caches its title on
// the target.
func (s *SQLite) UpsertThread(ctx context.Context, th model.Thread) error {
	now := time.Now().UTC().Format(timeLayout)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO threads (id, title, author_name, author_id, total_posts, total_pages, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title       = excluded.title,
		     total_posts = excluded.total_posts,
		     total_pages = excluded.total_pages,
		     updated_at  = excluded.updated_at`,
		th.ID, th.Title, th.AuthorName, th.AuthorID, th.TotalPosts, th.TotalPages, now,
	)
	if err != nil {
		return fmt.Errorf("upsert thread: %w", err)
	}
	if th.Title != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE targets SET title = ? WHERE id = ?`, th.Title, th.ID); err != nil {
			return fmt.Errorf("update target title: %w", err)
		}
	}
	return tx.Commit()
}

// UpsertPostsIfAbsent stores posts not seen before and reports how many rows
// were actually inserted. Re-submitting a stored post is a no-op.
func (s *SQLite) UpsertPostsIfAbsent(ctx context.Context, posts []model.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO posts (id, thread_id, author_id, author_name, sequence_number, page,
		     post_timestamp, post_date, content, first_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert post: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, p := range posts {
		res, err := stmt.ExecContext(ctx, p.ID, p.ThreadID, p.AuthorID, p.AuthorName, p.SequenceNumber, p.Page,
			p.Timestamp, p.PostDate, p.Content, now)
		if err != nil {
			return 0, fmt.Errorf("insert post %d: %w", p.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit posts: %w", err)
	}
	return inserted, nil
}

// GetPostsAfter returns stored posts of a thread with a sequence number above
// afterSeq, optionally limited to one author (authorID 0 means any).
func (s *SQLite) GetPostsAfter(ctx context.Context, threadID int64, afterSeq int, authorID int64) ([]model.Post, error) {
	query := `SELECT id, thread_id, author_id, author_name, sequence_number, page, post_timestamp, post_date, content, first_seen_at
		FROM posts WHERE thread_id = ? AND sequence_number > ?`
	args := []any{threadID, afterSeq}
	if authorID != 0 {
		query += ` AND author_id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY sequence_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var seen string
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.AuthorName, &p.SequenceNumber, &p.Page,
			&p.Timestamp, &p.PostDate, &p.Content, &seen); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.FirstSeenAt, _ = time.Parse(timeLayout, seen)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MarkDelivered records that the alert for post reached at least one channel.
func (s *SQLite) MarkDelivered(ctx context.Context, post model.Post, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO deliveries (post_id, thread_id, sequence_number, delivered_at) VALUES (?, ?, ?, ?)`,
		post.ID, post.ThreadID, post.SequenceNumber, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// DeliveredAfter returns the IDs of posts above afterSeq whose alert was
// already delivered.
func (s *SQLite) DeliveredAfter(ctx context.Context, threadID int64, afterSeq int) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id FROM deliveries WHERE thread_id = ? AND sequence_number > ?`, threadID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	delivered := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		delivered[id] = true
	}
	return delivered, rows.Err()
}

// GetWatermark returns the durable cursor of a target.
func (s *SQLite) GetWatermark(ctx context.Context, id int64) (model.Watermark, error) {
	var wm model.Watermark
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seen_count, last_seen_post_number, posts_per_page FROM targets WHERE id = ?`, id,
	).Scan(&wm.Count, &wm.SequenceNumber, &wm.PostsPerPage)
	if errors.Is(err, sql.ErrNoRows) {
		return wm, fmt.Errorf("target %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return wm, fmt.Errorf("get watermark: %w", err)
	}
	return wm, nil
}

// SetWatermark commits a check. Count and sequence number never decrease;
// posts must already be persisted when this is called.
func (s *SQLite) SetWatermark(ctx context.Context, id int64, wm model.Watermark, checkedAt time.Time) error {
	unlock := s.lock(id)
	defer unlock()

	perPage := wm.PostsPerPage
	if perPage <= 0 {
		perPage = model.DefaultPostsPerPage
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE targets SET
		     last_seen_count       = MAX(last_seen_count, ?),
		     last_seen_post_number = MAX(last_seen_post_number, ?),
		     posts_per_page        = ?,
		     last_checked_at       = ?
		 WHERE id = ?`,
		wm.Count, wm.SequenceNumber, perPage, checkedAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return expectRow(res, id)
}

// ResetWatermark is the operator override that may move the watermark back.
func (s *SQLite) ResetWatermark(ctx context.Context, id int64, seq int) error {
	unlock := s.lock(id)
	defer unlock()

	if seq < 0 {
		seq = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE targets SET last_seen_count = ?, last_seen_post_number = ?, last_checked_at = NULL WHERE id = ?`,
		seq, seq, id,
	)
	if err != nil {
		return fmt.Errorf("reset watermark: %w", err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	// Posts past the new watermark alert again on the next check.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM deliveries WHERE thread_id = ? AND sequence_number > ?`, id, seq,
	); err != nil {
		return fmt.Errorf("clear deliveries: %w", err)
	}
	return tx.Commit()
}

// RecordEvent appends an entry to the event log and populates its ID.
func (s *SQLite) RecordEvent(ctx context.Context, e *model.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (thread_id, kind, post_count, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ThreadID, string(e.Kind), e.PostCount, e.Message, e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// ListEvents returns the most recent events first. threadID 0 lists all.
func (s *SQLite) ListEvents(ctx context.Context, threadID int64, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, thread_id, kind, post_count, message, created_at FROM events`
	var args []any
	if threadID != 0 {
		query += ` WHERE thread_id = ?`
		args = append(args, threadID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var kind, created string
		if err := rows.Scan(&e.ID, &e.ThreadID, &kind, &e.PostCount, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = model.EventKind(kind)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneEvents deletes events created before the given time.
func (s *SQLite) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("target %d: %w", id, ErrNotFound)
	}
	return nil
}

func targetArgs(t *model.Target) ([]any, error) {
	schedule, err := encodeSchedule(t.Schedule)
	if err != nil {
		return nil, err
	}
	perPage := t.PostsPerPage
	if perPage <= 0 {
		perPage = model.DefaultPostsPerPage
	}
	interval := t.BaseInterval
	if interval <= 0 {
		interval = model.DefaultInterval
	}
	return []any{
		t.ID, t.Title, perPage, t.LastSeenCount, t.LastSeenPostNumber,
		int(interval / time.Second), schedule, t.StoreFilter.String(), t.NotifyFilter.String(),
		boolToInt(t.Enabled),
	}, nil
}

type scheduleRow struct {
	Days        []string `json:"days,omitempty"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Interval    int      `json:"interval"`
	Description string   `json:"description,omitempty"`
}

func encodeSchedule(rules []model.ScheduleRule) (string, error) {
	rows := make([]scheduleRow, len(rules))
	for i, r := range rules {
		rows[i] = scheduleRow{
			Days:        r.Days,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Interval:    int(r.Interval / time.Second),
			Description: r.Description,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode schedule: %w", err)
	}
	return string(b), nil
}

func decodeSchedule(raw string) ([]model.ScheduleRule, error) {
	var rows []scheduleRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rules := make([]model.ScheduleRule, len(rows))
	for i, r := range rows {
		rules[i] = model.ScheduleRule{
			Days:        r.Days,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Interval:    time.Duration(r.Interval) * time.Second,
			Description: r.Description,
		}
	}
	return rules, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTarget(row scannable) (*model.Target, error) {
	var t model.Target
	var intervalSec, enabled int
	var lastChecked sql.NullString
	var schedule, storeFilter, notifyFilter, created string
	err := row.Scan(&t.ID, &t.Title, &t.PostsPerPage, &t.LastSeenCount, &t.LastSeenPostNumber, &lastChecked,
		&intervalSec, &schedule, &storeFilter, &notifyFilter, &enabled, &created)
	if err != nil {
		return nil, fmt.Errorf("scan target: %w", err)
	}
	t.BaseInterval = time.Duration(intervalSec) * time.Second
	t.Enabled = enabled == 1
	if lastChecked.Valid {
		ts, _ := time.Parse(timeLayout, lastChecked.String)
		t.LastCheckedAt = &ts
	}
	t.CreatedAt, _ = time.Parse(timeLayout, created)
	if t.Schedule, err = decodeSchedule(schedule); err != nil {
		return nil, err
	}
	if t.StoreFilter, err = model.ParseAuthorFilter(storeFilter, model.AllAuthors()); err != nil {
		return nil, fmt.Errorf("store filter: %w", err)
	}
	if t.NotifyFilter, err = model.ParseAuthorFilter(notifyFilter, model.NoAuthors()); err != nil {
		return nil, fmt.Errorf("notify filter: %w", err)
	}
	return &t, nil
}

func scanTargets(rows *sql.Rows) ([]model.Target, error) {
	var targets []model.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, rows.Err()
}
