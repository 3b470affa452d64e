package visuals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reelsmith/internal/config"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const (
	maxImageBytes = 32 << 20
	seedRange     = 1000
)

// Asset is a downloaded image tied to the prompt index it illustrates.
type Asset struct {
	Index  int
	Prompt string
	Path   string
	Bytes  int
}

// FetchError records a prompt that was given up on. It matches services.ErrFetch.
type FetchError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch image %d after %d attempts: %v", e.Index, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{services.ErrFetch, e.Err}
}

// Result holds the surviving assets in prompt order plus the omitted prompts.
type Result struct {
	Requested int
	Assets    []Asset
	Failures  []*FetchError
}

// Fetcher downloads images from a Pollinations-style prompt endpoint.
type Fetcher struct {
	client      *http.Client
	baseURL     string
	width       int
	height      int
	attempts    int
	backoff     time.Duration
	parallelism int
	sleep       func(context.Context, time.Duration) error
	logger      *slog.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithSleeper overrides how backoff waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// NewFetcher builds a fetcher from the visuals config section.
func NewFetcher(cfg config.Visuals, logger *slog.Logger, opts ...Option) *Fetcher {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &Fetcher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		width:       cfg.Width,
		height:      cfg.Height,
		attempts:    max(cfg.Attempts, 1),
		backoff:     time.Duration(cfg.BackoffSeconds) * time.Second,
		parallelism: cfg.Parallelism,
		sleep:       sleepWithContext,
		logger:      logging.NewComponentLogger(logger, "visuals"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ImageURL builds the request URL for one prompt attempt.
func ImageURL(base, prompt string, width, height, seed int) string {
	query := url.Values{}
	query.Set("width", strconv.Itoa(width))
	query.Set("height", strconv.Itoa(height))
	query.Set("nologo", "true")
	query.Set("seed", strconv.Itoa(seed))
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(prompt) + "?" + query.Encode()
}

// AssetFileName is the workspace file name for the image of a prompt index.
func AssetFileName(index int) string {
	return fmt.Sprintf("image_%02d.jpg", index)
}

// FetchAll downloads one image per prompt into dir. Seeds for every attempt are
// drawn from rng before any request starts, so rng is never shared between
// goroutines. Only context cancellation is returned as an error.
func (f *Fetcher) FetchAll(ctx context.Context, dir string, prompts []string, rng *rand.Rand) (Result, error) {
	result := Result{Requested: len(prompts)}
	if len(prompts) == 0 {
		return result, nil
	}
	seeds := make([][]int, len(prompts))
	for i := range prompts {
		seeds[i] = make([]int, f.attempts)
		for a := range seeds[i] {
			seeds[i][a] = rng.IntN(seedRange)
		}
	}

	slots := make([]*Asset, len(prompts))
	failures := make([]*FetchError, len(prompts))

	group, groupCtx := errgroup.WithContext(ctx)
	if f.parallelism > 0 {
		group.SetLimit(f.parallelism)
	}
	for i, prompt := range prompts {
		group.Go(func() error {
			attemptURL := func(attempt int) string {
				return ImageURL(f.baseURL, prompt, f.width, f.height, seeds[i][attempt-1])
			}
			asset, fetchErr := f.fetchOne(groupCtx, dir, i, prompt, attemptURL)
			if fetchErr != nil {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				failures[i] = fetchErr
				return nil
			}
			slots[i] = &asset
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}

	logger := logging.WithContext(ctx, f.logger)
	for i := range prompts {
		if slots[i] != nil {
			result.Assets = append(result.Assets, *slots[i])
			continue
		}
		result.Failures = append(result.Failures, failures[i])
		logging.WarnWithContext(logger, "image omitted", "asset_omitted",
			logging.Int("index", i),
			logging.Int("attempts", failures[i].Attempts),
			logging.Error(failures[i].Err),
			logging.String(logging.FieldErrorHint, "image service kept failing for this prompt"),
			logging.String(logging.FieldImpact, "remaining images share the timeline"),
		)
	}
	logger.Info("images fetched",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("requested", result.Requested),
		logging.Int("fetched", len(result.Assets)),
	)
	return result, nil
}

// FetchURL downloads a caller-supplied image as asset 0 using the same retry
// policy. The URL is requested unchanged on every attempt.
func (f *Fetcher) FetchURL(ctx context.Context, dir, imageURL string) (Asset, error) {
	imageURL = strings.TrimSpace(imageURL)
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Asset{}, services.Wrap(services.ErrValidation, "fetching", "image url", "must be an absolute http(s) url", err)
	}
	asset, fetchErr := f.fetchOne(ctx, dir, 0, imageURL, func(int) string { return imageURL })
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Asset{}, ctxErr
		}
		return Asset{}, fetchErr
	}
	return asset, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, dir string, index int, prompt string, attemptURL func(int) string) (Asset, *FetchError) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		data, err := f.download(ctx, attemptURL(attempt))
		if err == nil {
			path := filepath.Join(dir, AssetFileName(index))
			if err = fileutil.WriteFileAtomic(path, data); err == nil {
				return Asset{Index: index, Prompt: prompt, Path: path, Bytes: len(data)}, nil
			}
			err = fmt.Errorf("write image: %w", err)
		}
		lastErr = err
		if ctx.Err() != nil {
			return Asset{}, &FetchError{Index: index, Attempts: attempt, Err: ctx.Err()}
		}
		f.logger.Debug("image attempt failed",
			logging.Int("index", index),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		if attempt < f.attempts {
			if err := f.sleep(ctx, f.backoff); err != nil {
				return Asset{}, &FetchError{Index: index, Attempts: attempt, Err: err}
			}
		}
	}
	return Asset{}, &FetchError{Index: index, Attempts: f.attempts, Err: lastErr}
}

func (f *Fetcher) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("image request: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image request: empty body")
	}
	return data, nil
}

// CheckViable fails with services.ErrInsufficientAssets when fewer than
// ratio*requested assets survived, or none at all.
func CheckViable(requested, fetched int, ratio float64) error {
	if fetched <= 0 {
		return services.Wrap(services.ErrInsufficientAssets, "fetching", "check assets",
			fmt.Sprintf("0 of %d images fetched", requested), nil)
	}
	if float64(fetched) < ratio*float64(requested) {
		return services.Wrap(services.ErrInsufficientAssets, "fetching", "check assets",
			fmt.Sprintf("%d of %d images fetched, below minimum ratio %.2f", fetched, requested, ratio), nil)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
