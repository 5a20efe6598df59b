package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func sampleNotification() Notification {
	return Notification{
		CapturedAt:    time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC),
		Pair:          "USD/JPY",
		Tenor:         "1Y",
		SpotRate:      decimal.RequireFromString("149.85"),
		ForwardRate:   decimal.RequireFromString("143.3651"),
		ForwardPoints: decimal.RequireFromString("-64849"),
		PremiumPct:    decimal.RequireFromString("-4.3276"),
		ThresholdPct:  decimal.NewFromInt(1),
		Direction:     "discount",
		Channels:      []string{"telegram"},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL+"/", time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Telegram Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id mismatch: %#v", received)
	}
	if !strings.Contains(received["text"], "USD/JPY 1Y") || !strings.Contains(received["text"], "-4.3276%") {
		t.Fatalf("unexpected text %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	err := notifier.Notify(context.Background(), sampleNotification())
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("ok=false should error with description, got %v", err)
	}
}

func TestTelegramNotifierHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("non-2xx should error")
	}
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, Notification) error { return f.err }

func TestFanoutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	f := Fanout{NewLogNotifier(testLogger()), failingNotifier{err: boom}}
	if err := f.Notify(context.Background(), sampleNotification()); !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if err := (Fanout{NewLogNotifier(testLogger())}).Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("log notifier should not fail: %v", err)
	}
}

func TestDirection(t *testing.T) {
	cases := map[string]string{"0.25": "premium", "-1.1": "discount", "0": "flat"}
	for in, want := range cases {
		if got := Direction(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Direction(%s) = %s, want %s", in, got, want)
		}
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
