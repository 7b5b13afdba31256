// Package fetcher downloads thread pages from the NGA app API and fetches
// page batches through a shared rate limiter and a bounded worker pool.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nga_reminder/internal/model"
)

const maxBodyBytes = 10 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PageResult is one page of a thread together with the thread metadata the
// API reports alongside it.
type PageResult struct {
	ThreadID     int64
	Page         int
	Title        string
	AuthorName   string
	AuthorID     int64
	TotalCount   int
	TotalPages   int
	PostsPerPage int
	Posts        []model.Post
}

// Thread returns the metadata part of the page.
func (r *PageResult) Thread() model.Thread {
	return model.Thread{
		ID:         r.ThreadID,
		Title:      r.Title,
		AuthorName: r.AuthorName,
		AuthorID:   r.AuthorID,
		TotalPosts: r.TotalCount,
		TotalPages: r.TotalPages,
	}
}

// Options configures the NGA client.
type Options struct {
	APIURL      string
	UserAgent   string
	PassportUID string
	PassportCID string
	Timeout     time.Duration
}

// Client fetches single thread pages from the NGA app API.
type Client struct {
	client HTTPClient
	opts   Options
}

// New creates a Client with the given HTTP client.
func New(client HTTPClient, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{client: client, opts: opts}
}

type apiPage struct {
	Code       int       `json:"code"`
	Msg        string    `json:"msg"`
	Subject    string    `json:"tsubject"`
	Author     string    `json:"tauthor"`
	AuthorID   int64     `json:"tauthorid"`
	Rows       int       `json:"vrows"`
	TotalPages int       `json:"totalPage"`
	PerPage    int       `json:"perPage"`
	Result     []apiPost `json:"result"`
}

type apiPost struct {
	TID           int64     `json:"tid"`
	PID           int64     `json:"pid"`
	Content       string    `json:"content"`
	PostDate      string    `json:"postdate"`
	PostTimestamp int64     `json:"postdatetimestamp"`
	Lou           int       `json:"lou"`
	Author        apiAuthor `json:"author"`
}

type apiAuthor struct {
	Username string `json:"username"`
	UID      int64  `json:"uid"`
}

// FetchPage downloads and decodes one page of a thread.
func (c *Client) FetchPage(ctx context.Context, threadID int64, page int) (*PageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("tid", strconv.FormatInt(threadID, 10))
	form.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.PassportUID != "" || c.opts.PassportCID != "" {
		req.Header.Set("Cookie", fmt.Sprintf("ngaPassportUid=%s; ngaPassportCid=%s", c.opts.PassportUID, c.opts.PassportCID))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return ParsePage(body, threadID, page)
}

// ParsePage decodes an API payload into a PageResult. The API numbers
// floors from 0 (the opening post); sequence numbers start at 1.
func ParsePage(body []byte, threadID int64, page int) (*PageResult, error) {
	var raw apiPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if raw.Code != 0 {
		return nil, fmt.Errorf("api error code %d: %s", raw.Code, raw.Msg)
	}
	if raw.TotalPages <= 0 {
		return nil, fmt.Errorf("malformed page: totalPage %d", raw.TotalPages)
	}

	perPage := raw.PerPage
	if perPage <= 0 {
		perPage = model.DefaultPostsPerPage
	}

	res := &PageResult{
		ThreadID:     threadID,
		Page:         page,
		Title:        raw.Subject,
		AuthorName:   raw.Author,
		AuthorID:     raw.AuthorID,
		TotalCount:   raw.Rows,
		TotalPages:   raw.TotalPages,
		PostsPerPage: perPage,
		Posts:        make([]model.Post, 0, len(raw.Result)),
	}
	for _, p := range raw.Result {
		tid := p.TID
		if tid == 0 {
			tid = threadID
		}
		res.Posts = append(res.Posts, model.Post{
			ID:             p.PID,
			ThreadID:       tid,
			AuthorID:       p.Author.UID,
			AuthorName:     p.Author.Username,
			SequenceNumber: p.Lou + 1,
			Page:           page,
			Timestamp:      p.PostTimestamp,
			PostDate:       p.PostDate,
			Content:        p.Content,
		})
	}
	return res, nil
}
