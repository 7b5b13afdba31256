package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BarkOptions configures the Bark push channel.
type BarkOptions struct {
	ServerURL string
	DeviceKey string
	Group     string
	Sound     string
	Timeout   time.Duration
	// Attempts bounds retries of a single delivery; the router handles
	// anything beyond that by falling back.
	Attempts uint
	Delay    time.Duration
}

// Bark delivers alerts to an iOS device through a Bark server.
type Bark struct {
	client HTTPClient
	opts   BarkOptions
	log    *slog.Logger
}

// NewBark creates a Bark channel.
func NewBark(client HTTPClient, opts BarkOptions, log *slog.Logger) *Bark {
	if opts.Group == "" {
		opts.Group = "NGA Reminder"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	return &Bark{client: client, opts: opts, log: log}
}

// Name implements Notifier.
func (b *Bark) Name() string { return "bark" }

// Configured implements Notifier.
func (b *Bark) Configured() bool {
	return b.opts.ServerURL != "" && b.opts.DeviceKey != ""
}

type barkRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Group string `json:"group,omitempty"`
	Sound string `json:"sound,omitempty"`
}

type barkResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type barkStatusError struct {
	status int
}

func (e *barkStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// Send implements Notifier.
func (b *Bark) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(barkRequest{
		Title: msg.Title,
		Body:  msg.Body,
		URL:   msg.URL,
		Group: b.opts.Group,
		Sound: b.opts.Sound,
	})
	if err != nil {
		return fmt.Errorf("encode bark request: %w", err)
	}
	endpoint := strings.TrimRight(b.opts.ServerURL, "/") + "/" + b.opts.DeviceKey

	return retry.Do(
		func() error {
			return b.post(ctx, endpoint, payload)
		},
		retry.Attempts(b.opts.Attempts),
		retry.Delay(b.opts.Delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			b.log.Debug("retrying bark delivery", "attempt", n+1, "error", err)
		}),
		retry.RetryIf(func(err error) bool {
			var se *barkStatusError
			if errors.As(err, &se) {
				return se.status >= http.StatusInternalServerError || se.status == http.StatusTooManyRequests
			}
			return true
		}),
	)
}

func (b *Bark) post(ctx context.Context, endpoint string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &barkStatusError{status: resp.StatusCode}
	}

	var out barkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&out); err != nil {
		return fmt.Errorf("decode bark response: %w", err)
	}
	if out.Code != http.StatusOK {
		return retry.Unrecoverable(fmt.Errorf("bark error code %d: %s", out.Code, out.Message))
	}
	return nil
}
