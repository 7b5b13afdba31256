package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nga_reminder/internal/model"
	"nga_reminder/internal/storage"
)

type fakeChecks map[int64]bool

func (f fakeChecks) Checking(id int64) bool { return f[id] }

func newTestServer(t *testing.T) (*httptest.Server, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(store, fakeChecks{42: true}, log).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func seed(t *testing.T, store *storage.SQLite) {
	t.Helper()
	ctx := context.Background()
	target := model.Target{ID: 42, StoreFilter: model.AllAuthors(), NotifyFilter: model.Authors(7), Enabled: true}
	if err := store.CreateTarget(ctx, &target); err != nil {
		t.Fatalf("create target: %v", err)
	}
	if err := store.UpsertThread(ctx, model.Thread{ID: 42, Title: "Answer", TotalPosts: 3, TotalPages: 1}); err != nil {
		t.Fatalf("upsert thread: %v", err)
	}
	posts := []model.Post{
		{ID: 1001, ThreadID: 42, AuthorID: 7, AuthorName: "seven", SequenceNumber: 1, Page: 1, Content: "a"},
		{ID: 1002, ThreadID: 42, AuthorID: 8, AuthorName: "eight", SequenceNumber: 2, Page: 1, Content: "b"},
		{ID: 1003, ThreadID: 42, AuthorID: 7, AuthorName: "seven", SequenceNumber: 3, Page: 1, Content: "c"},
	}
	if _, err := store.UpsertPostsIfAbsent(ctx, posts); err != nil {
		t.Fatalf("upsert posts: %v", err)
	}
	for _, e := range []model.Event{
		{ThreadID: 42, Kind: model.EventCheck, Message: "no change"},
		{ThreadID: 42, Kind: model.EventNewPosts, PostCount: 3},
		{ThreadID: 99, Kind: model.EventError, Message: "boom"},
	} {
		if err := store.RecordEvent(ctx, &e); err != nil {
			t.Fatalf("record event: %v", err)
		}
	}
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if diff := cmp.Diff(wantStatus, resp.StatusCode); diff != "" {
		t.Fatalf("status mismatch for %s (-want +got):\n%s", url, diff)
	}
	if diff := cmp.Diff("application/json", resp.Header.Get("Content-Type")); diff != "" {
		t.Errorf("content type mismatch (-want +got):\n%s", diff)
	}
	if v == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var got map[string]string
	getJSON(t, srv.URL+"/health", http.StatusOK, &got)
	if diff := cmp.Diff(map[string]string{"status": "healthy"}, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestPosts(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "all posts", query: "?tid=42", want: []int64{1001, 1002, 1003}},
		{name: "after post number", query: "?tid=42&start_post_number=1", want: []int64{1002, 1003}},
		{name: "by author", query: "?tid=42&start_post_number=0&author_uid=7", want: []int64{1001, 1003}},
		{name: "unknown thread", query: "?tid=43", want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []postJSON
			getJSON(t, srv.URL+"/api/v1/posts"+tt.query, http.StatusOK, &got)
			ids := []int64{}
			for _, p := range got {
				ids = append(ids, p.PID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("post ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	var got []postJSON
	getJSON(t, srv.URL+"/api/v1/posts?tid=42&start_post_number=2", http.StatusOK, &got)
	if diff := cmp.Diff("https://nga.178.com/read.php?tid=42&page=1#pid1003Anchor", got[0].URL); diff != "" {
		t.Errorf("url mismatch (-want +got):\n%s", diff)
	}
}

func TestPostsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, q := range []string{"", "?tid=abc", "?tid=42&start_post_number=-1", "?tid=42&author_uid=x"} {
		getJSON(t, srv.URL+"/api/v1/posts"+q, http.StatusBadRequest, nil)
	}
}

func TestThreads(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	var got []threadJSON
	getJSON(t, srv.URL+"/api/v1/threads", http.StatusOK, &got)
	if diff := cmp.Diff(1, len(got)); diff != "" {
		t.Fatalf("thread count mismatch (-want +got):\n%s", diff)
	}
	want := threadJSON{
		TID:           42,
		Enabled:       true,
		CheckInterval: 300,
		StoreAuthors:  "all",
		NotifyAuthors: "7",
		Checking:      true,
	}
	got[0].Title = ""
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("thread mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents(t *testing.T) {
	srv, store := newTestServer(t)
	seed(t, store)

	var got []eventJSON
	getJSON(t, srv.URL+"/api/v1/events?tid=42", http.StatusOK, &got)
	var kinds []string
	for _, e := range got {
		kinds = append(kinds, e.Kind)
	}
	if diff := cmp.Diff([]string{"new_posts", "check"}, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}

	getJSON(t, srv.URL+"/api/v1/events?limit=1", http.StatusOK, &got)
	if diff := cmp.Diff(1, len(got)); diff != "" {
		t.Errorf("limited count mismatch (-want +got):\n%s", diff)
	}
	getJSON(t, srv.URL+"/api/v1/events?limit=0", http.StatusBadRequest, nil)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/v1/threads", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if diff := cmp.Diff(http.StatusMethodNotAllowed, resp.StatusCode); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}
