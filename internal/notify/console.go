package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console prints alerts to a writer. It is the local fallback channel.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
}

// NewConsole creates a Console channel writing to w.
func NewConsole(w io.Writer, enabled bool) *Console {
	return &Console{w: w, enabled: enabled}
}

// Name implements Notifier.
func (c *Console) Name() string { return "console" }

// Configured implements Notifier.
func (c *Console) Configured() bool { return c.enabled && c.w != nil }

// Send implements Notifier.
func (c *Console) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n", rule, msg.Title, msg.Body)
	if msg.URL != "" {
		fmt.Fprintf(&b, "%s\n", msg.URL)
	}
	fmt.Fprintf(&b, "%s\n", rule)

	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}
