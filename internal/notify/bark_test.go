package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newBark(url string, key string) *Bark {
	return NewBark(http.DefaultClient, BarkOptions{
		ServerURL: url,
		DeviceKey: key,
		Sound:     "bell",
		Delay:     time.Millisecond,
	}, discardLogger())
}

func TestBarkSend(t *testing.T) {
	var got barkRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
	}))
	defer srv.Close()

	b := newBark(srv.URL+"/", "devkey")
	msg := Message{Title: "New Post: x", Body: "a (#1):\nhi", URL: "https://nga.178.com/read.php?tid=1&page=1#pid2Anchor"}
	if err := b.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	if path != "/devkey" {
		t.Errorf("path = %q, want /devkey", path)
	}
	want := barkRequest{Title: msg.Title, Body: msg.Body, URL: msg.URL, Group: "NGA Reminder", Sound: "bell"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBarkRetries(t *testing.T) {
	tests := []struct {
		name      string
		handler   func(n int32, w http.ResponseWriter)
		wantErr   bool
		wantCalls int32
	}{
		{
			name: "server error then success",
			handler: func(n int32, w http.ResponseWriter) {
				if n == 1 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte(`{"code":200}`))
			},
			wantCalls: 2,
		},
		{
			name: "client error is not retried",
			handler: func(_ int32, w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name: "bark error code is not retried",
			handler: func(_ int32, w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"code":400,"message":"failed to get device token"}`))
			},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name: "persistent server error gives up",
			handler: func(_ int32, w http.ResponseWriter) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr:   true,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				tt.handler(calls.Add(1), w)
			}))
			defer srv.Close()

			err := newBark(srv.URL, "k").Send(context.Background(), Message{Title: "t"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestBarkConfigured(t *testing.T) {
	if newBark("", "k").Configured() {
		t.Error("missing server should be unconfigured")
	}
	if newBark("https://api.day.app", "").Configured() {
		t.Error("missing device key should be unconfigured")
	}
	if !newBark("https://api.day.app", "k").Configured() {
		t.Error("expected configured")
	}
}
