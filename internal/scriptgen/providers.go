package scriptgen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsmith/internal/services/llm"
)

const maxTextBytes = 4 << 20

// Request is one JSON text generation call.
type Request struct {
	System string
	User   string
	Seed   int
}

// Completer returns the raw JSON text a provider produced for a request.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// LLMCompleter adapts the chat completions client.
type LLMCompleter struct {
	Client *llm.Client
}

// Name identifies the provider.
func (LLMCompleter) Name() string { return "llm" }

// Complete sends the system and user prompts. The seed is not used.
func (c LLMCompleter) Complete(ctx context.Context, req Request) (string, error) {
	return c.Client.CompleteJSON(ctx, req.System, req.User)
}

// Pollinations calls the keyless text endpoint, which takes the whole prompt
// in the URL path.
type Pollinations struct {
	baseURL string
	client  *http.Client
}

// NewPollinations builds a provider for baseURL.
func NewPollinations(baseURL string, timeout time.Duration) *Pollinations {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Pollinations{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider.
func (p *Pollinations) Name() string { return "pollinations" }

// RequestURL builds the GET URL for req.
func (p *Pollinations) RequestURL(req Request) string {
	prompt := strings.TrimSpace(req.System + "\n\n" + req.User)
	query := url.Values{}
	query.Set("json", "true")
	query.Set("model", "openai")
	query.Set("seed", strconv.Itoa(req.Seed))
	return p.baseURL + "/" + url.PathEscape(prompt) + "?" + query.Encode()
}

// Complete fetches the generated text.
func (p *Pollinations) Complete(ctx context.Context, req Request) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.RequestURL(req), nil)
	if err != nil {
		return "", fmt.Errorf("pollinations request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBytes))
	if err != nil {
		return "", fmt.Errorf("pollinations read: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("pollinations request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
