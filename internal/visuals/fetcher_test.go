package visuals_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
	"reelsmith/internal/visuals"
)

func newFetcher(t *testing.T, server *httptest.Server, sleeps *[]time.Duration) *visuals.Fetcher {
	t.Helper()
	cfg := config.Default().Visuals
	cfg.BaseURL = server.URL + "/prompt"
	var mu sync.Mutex
	return visuals.NewFetcher(cfg, nil,
		visuals.WithHTTPClient(server.Client()),
		visuals.WithSleeper(func(_ context.Context, d time.Duration) error {
			if sleeps != nil {
				mu.Lock()
				*sleeps = append(*sleeps, d)
				mu.Unlock()
			}
			return nil
		}),
	)
}

func TestImageURL(t *testing.T) {
	got := visuals.ImageURL("https://image.example/prompt/", "ghost in hallway, dark", 1080, 1920, 42)
	want := "https://image.example/prompt/ghost%20in%20hallway%2C%20dark?height=1920&nologo=true&seed=42&width=1080"
	if got != want {
		t.Fatalf("ImageURL mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestFetchAllOmitsPermanentFailuresAndPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prompt := strings.TrimPrefix(r.URL.Path, "/prompt/")
		mu.Lock()
		hits[prompt]++
		mu.Unlock()
		if strings.HasPrefix(prompt, "broken") {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("img:" + prompt))
	}))
	defer server.Close()

	prompts := []string{"p0", "p1", "broken-a", "p3", "p4", "broken-b", "p6", "p7"}
	var sleeps []time.Duration
	fetcher := newFetcher(t, server, &sleeps)

	result, err := fetcher.FetchAll(context.Background(), t.TempDir(), prompts, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if result.Requested != 8 || len(result.Assets) != 6 || len(result.Failures) != 2 {
		t.Fatalf("unexpected result sizes: requested=%d assets=%d failures=%d", result.Requested, len(result.Assets), len(result.Failures))
	}
	wantOrder := []int{0, 1, 3, 4, 6, 7}
	for i, asset := range result.Assets {
		if asset.Index != wantOrder[i] {
			t.Fatalf("asset %d has index %d, want %d", i, asset.Index, wantOrder[i])
		}
		data, err := os.ReadFile(asset.Path)
		if err != nil || string(data) != "img:"+asset.Prompt {
			t.Fatalf("unexpected asset content %q err=%v", data, err)
		}
	}
	for _, failure := range result.Failures {
		if !errors.Is(failure, services.ErrFetch) || failure.Attempts != 3 {
			t.Fatalf("unexpected failure %v", failure)
		}
	}
	if hits["broken-a"] != 3 || hits["broken-b"] != 3 || hits["p0"] != 1 {
		t.Fatalf("unexpected attempt counts %v", hits)
	}
	if len(sleeps) != 4 {
		t.Fatalf("expected 2 backoff waits per failed prompt, got %v", sleeps)
	}
	for _, d := range sleeps {
		if d != 2*time.Second {
			t.Fatalf("expected 2s backoff, got %s", d)
		}
	}
	if err := visuals.CheckViable(result.Requested, len(result.Assets), 0.5); err != nil {
		t.Fatalf("6 of 8 should be viable: %v", err)
	}
}

func TestFetchAllUsesFreshSeedPerAttempt(t *testing.T) {
	var mu sync.Mutex
	var seeds []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seeds = append(seeds, r.URL.Query().Get("seed"))
		attempt := len(seeds)
		mu.Unlock()
		if r.URL.Query().Get("nologo") != "true" || r.URL.Query().Get("width") != "1080" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if attempt < 3 {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer server.Close()

	result, err := newFetcher(t, server, nil).FetchAll(context.Background(), t.TempDir(), []string{"moon"}, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("expected asset after empty-body retries, got %+v", result)
	}
	if len(seeds) != 3 {
		t.Fatalf("expected 3 attempts, got %v", seeds)
	}

	// Same source yields the same seed sequence.
	again := make([]string, 0, 3)
	rng := rand.New(rand.NewPCG(7, 7))
	for range 3 {
		again = append(again, strconv.Itoa(rng.IntN(1000)))
	}
	for i := range seeds {
		if seeds[i] != again[i] {
			t.Fatalf("seed %d: got %s want %s", i, seeds[i], again[i])
		}
	}
}

func TestFetchAllCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newFetcher(t, server, nil).FetchAll(ctx, t.TempDir(), []string{"a", "b"}, rand.New(rand.NewPCG(1, 1)))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("single"))
	}))
	defer server.Close()

	fetcher := newFetcher(t, server, nil)
	asset, err := fetcher.FetchURL(context.Background(), t.TempDir(), server.URL+"/cover.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if asset.Index != 0 || asset.Bytes != len("single") {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if _, err := fetcher.FetchURL(context.Background(), t.TempDir(), "file:///etc/passwd"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckViable(t *testing.T) {
	tests := []struct {
		requested, fetched int
		ok                 bool
	}{
		{8, 8, true},
		{8, 4, true},
		{8, 3, false},
		{8, 0, false},
		{1, 1, true},
		{0, 0, false},
	}
	for _, tc := range tests {
		err := visuals.CheckViable(tc.requested, tc.fetched, 0.5)
		if tc.ok && err != nil {
			t.Fatalf("%d/%d: unexpected error %v", tc.fetched, tc.requested, err)
		}
		if !tc.ok && !errors.Is(err, services.ErrInsufficientAssets) {
			t.Fatalf("%d/%d: expected ErrInsufficientAssets, got %v", tc.fetched, tc.requested, err)
		}
	}
}
