package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGoogleTTSURL = "https://translate.google.com/translate_tts"
	googleUserAgent     = "Mozilla/5.0"
	maxClipBytes        = 16 << 20
)

// GoogleTranslate fetches MP3 speech from the translate_tts endpoint.
type GoogleTranslate struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewGoogleTranslate returns a provider for language using baseURL.
func NewGoogleTranslate(baseURL, language string, timeout time.Duration) *GoogleTranslate {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultGoogleTTSURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleTranslate{
		baseURL:    baseURL,
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in logs and errors.
func (g *GoogleTranslate) Name() string { return "google_translate" }

// Synthesize requests one clip for text.
func (g *GoogleTranslate) Synthesize(ctx context.Context, text string) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("q", text)
	query.Set("tl", g.language)
	query.Set("client", "tw-ob")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", googleUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("tts request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes))
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	return data, nil
}
