package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"reelsmith/internal/config"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/scriptgen"
)

const maxBodyBytes = 50 << 20

// Pipeline is the run surface the handlers drive. *pipeline.Runner satisfies it.
type Pipeline interface {
	Generate(ctx context.Context, topic string) (scriptgen.Script, error)
	GenerateScene(ctx context.Context, topic string) (scriptgen.Scene, error)
	Render(ctx context.Context, req pipeline.RenderRequest) (pipeline.Result, error)
	Active() int
}

// RunLister reads run history. *ledger.Store satisfies it.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]ledger.Run, error)
}

// HealthFunc produces the readiness report served by GET /api/health.
type HealthFunc func(ctx context.Context) HealthResponse

// Server is the HTTP front end.
type Server struct {
	cfg      *config.Config
	pipeline Pipeline
	runs     RunLister
	health   HealthFunc
	logger   *slog.Logger

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
}

// New builds a server. runs and health may be nil.
func New(cfg *config.Config, p Pipeline, runs RunLister, health HealthFunc, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		runs:     runs,
		health:   health,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		lock:     flock.New(cfg.Paths.LockPath),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       seconds(cfg.API.ReadTimeoutSeconds, 60),
		WriteTimeout:      seconds(cfg.API.WriteTimeoutSeconds, 1800),
		IdleTimeout:       seconds(cfg.API.IdleTimeoutSeconds, 120),
	}
	return s
}

// Handler returns the routed handler with request IDs and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/runs", authMiddleware(strings.TrimSpace(s.cfg.API.Token), s.handleRuns))
	mux.Handle("/output/", http.StripPrefix("/output/", noDirListing(http.FileServer(http.Dir(s.cfg.Paths.OutputDir)))))
	return withCORS(s.withRequestID(mux))
}

// Start acquires the instance lock, listens on the configured bind address,
// and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.Paths.LockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith server is already running")
	}

	listener, err := net.Listen("tcp", s.cfg.API.Bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.cfg.Paths.LockPath),
	)
	return nil
}

// Addr is the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.lock != nil && s.lock.Locked() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
