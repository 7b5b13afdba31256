package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nga_reminder/internal/model"
)

type mockTransport struct {
	mu         sync.Mutex
	body       string
	statusCode int
	err        error
	requests   []*http.Request
	forms      []url.Values
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		form, _ := url.ParseQuery(string(data))
		m.forms = append(m.forms, form)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func testOptions() Options {
	return Options{
		APIURL:      "https://bbs.nga.cn/app_api.php?__lib=post&__act=list",
		UserAgent:   "test-agent",
		PassportUID: "uid123",
		PassportCID: "cid456",
	}
}

func TestFetchPage(t *testing.T) {
	body := loadFixture(t, "testdata/thread_page.json")

	tests := []struct {
		name      string
		transport *mockTransport
		wantPosts int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: body, statusCode: 200},
			wantPosts: 2,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "forbidden", statusCode: 403},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid json",
			transport: &mockTransport{body: "<html>", statusCode: 200},
			wantErr:   true,
		},
		{
			name:      "api error code",
			transport: &mockTransport{body: `{"code":1,"msg":"thread not found"}`, statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.transport, testOptions())
			res, err := c.FetchPage(context.Background(), 12345678, 182)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantPosts, len(res.Posts)); diff != "" {
				t.Errorf("post count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchPageRequest(t *testing.T) {
	transport := &mockTransport{body: loadFixture(t, "testdata/thread_page.json"), statusCode: 200}
	c := New(transport, testOptions())

	if _, err := c.FetchPage(context.Background(), 12345678, 3); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(transport.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(transport.requests))
	}
	req := transport.requests[0]
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if got := req.Header.Get("User-Agent"); got != "test-agent" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := req.Header.Get("Cookie"); got != "ngaPassportUid=uid123; ngaPassportCid=cid456" {
		t.Errorf("Cookie = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", got)
	}
	form := transport.forms[0]
	if form.Get("tid") != "12345678" || form.Get("page") != "3" {
		t.Errorf("form = %v, want tid=12345678 page=3", form)
	}
}

func TestParsePage(t *testing.T) {
	body := loadFixture(t, "testdata/thread_page.json")

	got, err := ParsePage([]byte(body), 12345678, 182)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := &PageResult{
		ThreadID:     12345678,
		Page:         182,
		Title:        "[Discussion] Weekly market thread",
		AuthorName:   "-Wolf-",
		AuthorID:     150058,
		TotalCount:   3635,
		TotalPages:   182,
		PostsPerPage: 20,
		Posts: []model.Post{
			{
				ID: 900001, ThreadID: 12345678, AuthorID: 150058, AuthorName: "-Wolf-",
				SequenceNumber: 3621, Page: 182, Timestamp: 1717420500,
				PostDate: "2024-06-03 21:15", Content: "First new post on this page",
			},
			{
				ID: 900002, ThreadID: 12345678, AuthorID: 42, AuthorName: "reader",
				SequenceNumber: 3622, Page: 182, Timestamp: 1717420800,
				PostDate: "2024-06-03 21:20", Content: "A reply[quote]quoted text[/quote]",
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParsePage mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePageDefaults(t *testing.T) {
	body := `{"code":0,"tsubject":"t","vrows":3,"totalPage":1,"result":[{"pid":1,"lou":0,"author":{"uid":5}}]}`

	got, err := ParsePage([]byte(body), 77, 1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.PostsPerPage != model.DefaultPostsPerPage {
		t.Errorf("PostsPerPage = %d, want default %d", got.PostsPerPage, model.DefaultPostsPerPage)
	}
	if got.Posts[0].ThreadID != 77 {
		t.Errorf("ThreadID = %d, want fallback 77", got.Posts[0].ThreadID)
	}
	if diff := cmp.Diff(1, got.Posts[0].SequenceNumber); diff != "" {
		t.Errorf("opening floor sequence mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParsePage([]byte(`{"code":0,"totalPage":0}`), 77, 1); err == nil {
		t.Error("expected error for zero totalPage")
	}
}
