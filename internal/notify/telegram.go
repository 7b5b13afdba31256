package notify

import (
	"context"
	"fmt"
	"strings"
)

// TextSender delivers a plain text message to a Telegram chat.
type TextSender interface {
	SendText(chatID int64, text string) error
}

// Telegram pushes alerts into a Telegram chat through the operator bot.
type Telegram struct {
	sender TextSender
	chatID int64
}

// NewTelegram creates a Telegram channel. A nil sender or zero chat leaves it
// unconfigured.
func NewTelegram(sender TextSender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// Name implements Notifier.
func (t *Telegram) Name() string { return "telegram" }

// Configured implements Notifier.
func (t *Telegram) Configured() bool { return t.sender != nil && t.chatID != 0 }

// Send implements Notifier.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(msg.Title)
	b.WriteString("\n\n")
	b.WriteString(msg.Body)
	if msg.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(msg.URL)
	}
	if err := t.sender.SendText(t.chatID, b.String()); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
