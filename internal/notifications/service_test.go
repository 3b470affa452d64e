package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/notifications"
)

type captured struct {
	title, tags, priority, body string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFailed(context.Background(), "topic", "no_audio", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyRunCompleted(t *testing.T) {
	srv, got := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	err := svc.NotifyRunCompleted(context.Background(), "ngôi nhà  hoang", "http://host/output/video_x.mp4", 95*time.Second+400*time.Millisecond)
	if err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	msg := (*got)[0]
	if msg.title != "Reelsmith - Video Ready" || msg.tags != "reelsmith,render,completed" {
		t.Fatalf("unexpected headers %#v", msg)
	}
	want := "🎬 Video ready: Ngôi Nhà Hoang (1m35s)\nhttp://host/output/video_x.mp4"
	if msg.body != want {
		t.Fatalf("body mismatch\n got: %q\nwant: %q", msg.body, want)
	}
}

func TestNotifyRunFailed(t *testing.T) {
	srv, got := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunFailed(context.Background(), "", "composition_engine", errors.New("ffmpeg exploded")); err != nil {
		t.Fatal(err)
	}
	msg := (*got)[0]
	if msg.priority != "high" {
		t.Fatalf("expected high priority, got %q", msg.priority)
	}
	if msg.body != "❌ Run failed: untitled run [composition_engine]\nffmpeg exploded" {
		t.Fatalf("unexpected body %q", msg.body)
	}
}

func TestNotifyRespectsEventToggles(t *testing.T) {
	srv, got := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.RunComplete = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunCompleted(context.Background(), "topic", "", time.Second); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 0 {
		t.Fatalf("expected disabled event to be skipped, got %d requests", len(*got))
	}
}

func TestNotifySurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	defer srv.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
