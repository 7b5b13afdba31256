// Package api serves read-only JSON views of stored posts, monitored
// threads and the event log.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"nga_reminder/internal/model"
	"nga_reminder/internal/notify"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Reader is the subset of the store the API needs.
type Reader interface {
	GetPostsAfter(ctx context.Context, threadID int64, afterSeq int, authorID int64) ([]model.Post, error)
	ListTargets(ctx context.Context) ([]model.Target, error)
	ListEvents(ctx context.Context, threadID int64, limit int) ([]model.Event, error)
}

// CheckReporter reports whether a target check is running.
type CheckReporter interface {
	Checking(id int64) bool
}

// Server is the HTTP API.
type Server struct {
	store  Reader
	checks CheckReporter
	log    *slog.Logger
}

// New creates a Server. checks may be nil.
func New(store Reader, checks CheckReporter, log *slog.Logger) *Server {
	return &Server{store: store, checks: checks, log: log}
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/posts", s.handlePosts)
	mux.HandleFunc("GET /api/v1/threads", s.handleThreads)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	return mux
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting http api", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

type postJSON struct {
	PID        int64     `json:"pid"`
	TID        int64     `json:"tid"`
	AuthorUID  int64     `json:"author_uid"`
	AuthorName string    `json:"author_name"`
	PostNumber int       `json:"post_number"`
	Page       int       `json:"page"`
	Timestamp  int64     `json:"timestamp"`
	PostDate   string    `json:"post_date"`
	Content    string    `json:"content"`
	URL        string    `json:"url"`
	SeenAt     time.Time `json:"first_seen_at"`
}

type threadJSON struct {
	TID                int64      `json:"tid"`
	Title              string     `json:"title"`
	Enabled            bool       `json:"enabled"`
	CheckInterval      int        `json:"check_interval"`
	StoreAuthors       string     `json:"store_authors"`
	NotifyAuthors      string     `json:"notify_authors"`
	LastSeenCount      int        `json:"last_seen_count"`
	LastSeenPostNumber int        `json:"last_seen_post_number"`
	LastCheckedAt      *time.Time `json:"last_checked_at"`
	Checking           bool       `json:"checking"`
}

type eventJSON struct {
	ID        int64     `json:"id"`
	TID       int64     `json:"tid"`
	Kind      string    `json:"kind"`
	PostCount int       `json:"post_count"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tid, err := strconv.ParseInt(q.Get("tid"), 10, 64)
	if err != nil || tid <= 0 {
		writeError(w, http.StatusBadRequest, "tid is required")
		return
	}
	start, err := intParam(q.Get("start_post_number"), 0)
	if err != nil || start < 0 {
		writeError(w, http.StatusBadRequest, "invalid start_post_number")
		return
	}
	var author int64
	if raw := q.Get("author_uid"); raw != "" {
		author, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author_uid")
			return
		}
	}

	posts, err := s.store.GetPostsAfter(r.Context(), tid, start, author)
	if err != nil {
		s.log.Error("get posts", "thread_id", tid, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	out := make([]postJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, postJSON{
			PID:        p.ID,
			TID:        p.ThreadID,
			AuthorUID:  p.AuthorID,
			AuthorName: p.AuthorName,
			PostNumber: p.SequenceNumber,
			Page:       p.Page,
			Timestamp:  p.Timestamp,
			PostDate:   p.PostDate,
			Content:    p.Content,
			URL:        notify.PostURL(p),
			SeenAt:     p.FirstSeenAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	targets, err := s.store.ListTargets(r.Context())
	if err != nil {
		s.log.Error("list targets", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	out := make([]threadJSON, 0, len(targets))
	for _, t := range targets {
		out = append(out, threadJSON{
			TID:                t.ID,
			Title:              t.Title,
			Enabled:            t.Enabled,
			CheckInterval:      int(t.BaseInterval / time.Second),
			StoreAuthors:       t.StoreFilter.String(),
			NotifyAuthors:      t.NotifyFilter.String(),
			LastSeenCount:      t.LastSeenCount,
			LastSeenPostNumber: t.LastSeenPostNumber,
			LastCheckedAt:      t.LastCheckedAt,
			Checking:           s.checks != nil && s.checks.Checking(t.ID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var tid int64
	if raw := q.Get("tid"); raw != "" {
		var err error
		tid, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tid")
			return
		}
	}
	limit, err := intParam(q.Get("limit"), defaultEventLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxEventLimit)

	events, err := s.store.ListEvents(r.Context(), tid, limit)
	if err != nil {
		s.log.Error("list events", "thread_id", tid, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON{
			ID:        e.ID,
			TID:       e.ThreadID,
			Kind:      string(e.Kind),
			PostCount: e.PostCount,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
