package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"nga_reminder/internal/model"
	"nga_reminder/internal/monitorerr"
)

type fakeChannel struct {
	mu         sync.Mutex
	name       string
	configured bool
	err        error
	sent       []Message
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var ignoreErr = cmpopts.IgnoreFields(Attempt{}, "Err")

func TestRouterFallback(t *testing.T) {
	msg := Message{Title: "t", Body: "b", URL: "u"}

	tests := []struct {
		name      string
		primary   *fakeChannel
		fallback  *fakeChannel
		want      []Attempt
		wantSends [2]int
	}{
		{
			name:      "primary delivers",
			primary:   &fakeChannel{name: "bark", configured: true},
			fallback:  &fakeChannel{name: "console", configured: true},
			want:      []Attempt{{Channel: "bark", Outcome: OutcomeDelivered}},
			wantSends: [2]int{1, 0},
		},
		{
			name:     "primary fails",
			primary:  &fakeChannel{name: "bark", configured: true, err: errors.New("timeout")},
			fallback: &fakeChannel{name: "console", configured: true},
			want: []Attempt{
				{Channel: "bark", Outcome: OutcomeFailed},
				{Channel: "console", Outcome: OutcomeDelivered},
			},
			wantSends: [2]int{1, 1},
		},
		{
			name:     "primary not configured",
			primary:  &fakeChannel{name: "bark"},
			fallback: &fakeChannel{name: "console", configured: true},
			want: []Attempt{
				{Channel: "bark", Outcome: OutcomeSkipped},
				{Channel: "console", Outcome: OutcomeDelivered},
			},
			wantSends: [2]int{0, 1},
		},
		{
			name:     "all fail",
			primary:  &fakeChannel{name: "bark", configured: true, err: errors.New("down")},
			fallback: &fakeChannel{name: "console", configured: true, err: errors.New("closed")},
			want: []Attempt{
				{Channel: "bark", Outcome: OutcomeFailed},
				{Channel: "console", Outcome: OutcomeFailed},
			},
			wantSends: [2]int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(discardLogger(), tt.primary, tt.fallback)
			got := r.Send(context.Background(), msg)
			if diff := cmp.Diff(tt.want, got, ignoreErr); diff != "" {
				t.Errorf("attempts mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSends, [2]int{tt.primary.count(), tt.fallback.count()}); diff != "" {
				t.Errorf("send counts mismatch (-want +got):\n%s", diff)
			}
			for _, a := range got {
				if a.Outcome != OutcomeFailed {
					continue
				}
				var ne *monitorerr.NotifyError
				if !errors.As(a.Err, &ne) || ne.Channel != a.Channel {
					t.Errorf("failed attempt on %s should carry NotifyError, got %v", a.Channel, a.Err)
				}
			}
		})
	}
}

func TestDeliveredAndSummary(t *testing.T) {
	attempts := []Attempt{
		{Channel: "bark", Outcome: OutcomeFailed},
		{Channel: "console", Outcome: OutcomeDelivered},
	}
	if !Delivered(attempts) {
		t.Error("expected Delivered")
	}
	if Delivered(attempts[:1]) {
		t.Error("did not expect Delivered for failed only")
	}
	if got := Summary(attempts); got != "bark=failed, console=delivered" {
		t.Errorf("Summary = %q", got)
	}
}

func TestFormatMessage(t *testing.T) {
	target := model.Target{ID: 12345678, Title: "Weekly thread"}
	post := model.Post{
		ID:             900001,
		ThreadID:       12345678,
		AuthorName:     "-Wolf-",
		SequenceNumber: 3621,
		Page:           182,
		Content:        "  hello world  ",
	}

	got := FormatMessage(target, post)
	want := Message{
		Title: "New Post: Weekly thread",
		Body:  "-Wolf- (#3621):\nhello world",
		URL:   "https://nga.178.com/read.php?tid=12345678&page=182#pid900001Anchor",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatMessage mismatch (-want +got):\n%s", diff)
	}

	untitled := FormatMessage(model.Target{ID: 5}, post)
	if untitled.Title != "New Post: thread 5" {
		t.Errorf("untitled title = %q", untitled.Title)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("短文本", 5); got != "短文本" {
		t.Errorf("short excerpt = %q", got)
	}
	if got := Excerpt("一二三四五六", 3); got != "一二三..." {
		t.Errorf("cut excerpt = %q", got)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	if !c.Configured() {
		t.Fatal("expected configured")
	}
	if err := c.Send(context.Background(), Message{Title: "New Post: x", Body: "a (#1):\nhi", URL: "https://example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"New Post: x", "a (#1):\nhi", "https://example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if NewConsole(&buf, false).Configured() {
		t.Error("disabled console should not be configured")
	}
}

type fakeTextSender struct {
	chatID int64
	text   string
	err    error
}

func (f *fakeTextSender) SendText(chatID int64, text string) error {
	f.chatID = chatID
	f.text = text
	return f.err
}

func TestTelegram(t *testing.T) {
	sender := &fakeTextSender{}
	tg := NewTelegram(sender, 100)
	if !tg.Configured() {
		t.Fatal("expected configured")
	}
	if err := tg.Send(context.Background(), Message{Title: "T", Body: "B", URL: "U"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.chatID != 100 || sender.text != "T\n\nB\n\nU" {
		t.Errorf("sent (%d, %q)", sender.chatID, sender.text)
	}

	if NewTelegram(nil, 100).Configured() || NewTelegram(sender, 0).Configured() {
		t.Error("expected unconfigured telegram without sender or chat")
	}

	sender.err = errors.New("blocked")
	if err := tg.Send(context.Background(), Message{}); err == nil {
		t.Error("expected error from sender")
	}
}
