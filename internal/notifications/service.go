package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/textutil"
)

const (
	userAgent = "Reelsmith-Go/0.1.0"
	// maxMessageRunes caps the error text in failure messages.
	maxMessageRunes = 400
)

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, topic, videoURL string, elapsed time.Duration) error
	NotifyRunFailed(ctx context.Context, topic, reason string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		runComplete: cfg.Notifications.RunComplete,
		runFailed:   cfg.Notifications.RunFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	runComplete bool
	runFailed   bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, topic, videoURL string, elapsed time.Duration) error {
	if !n.runComplete {
		return nil
	}
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	message := fmt.Sprintf("🎬 Video ready: %s (%s)", displayTopic(topic), elapsed)
	if videoURL = strings.TrimSpace(videoURL); videoURL != "" {
		message = fmt.Sprintf("%s\n%s", message, videoURL)
	}
	return n.send(ctx, payload{
		title:   "Reelsmith - Video Ready",
		message: message,
		tags:    []string{"reelsmith", "render", "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, topic, reason string, err error) error {
	if !n.runFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Run failed: ")
	builder.WriteString(displayTopic(topic))
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString(" [")
		builder.WriteString(reason)
		builder.WriteString("]")
	}
	builder.WriteString("\n")
	if err != nil {
		builder.WriteString(textutil.Truncate(err.Error(), maxMessageRunes))
	} else {
		builder.WriteString("unknown error")
	}
	return n.send(ctx, payload{
		title:    "Reelsmith - Run Failed",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Reelsmith - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	})
}

func displayTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "untitled run"
	}
	return textutil.Truncate(textutil.TitleCase(topic), 80)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, string, time.Duration) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, string, error) error            { return nil }
func (noopService) TestNotification(context.Context) error                                  { return nil }
