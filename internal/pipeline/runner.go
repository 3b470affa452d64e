package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/composition"
	"reelsmith/internal/config"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/music"
	"reelsmith/internal/narration"
	"reelsmith/internal/notifications"
	"reelsmith/internal/render"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/services"
	"reelsmith/internal/speech"
	"reelsmith/internal/visuals"
	"reelsmith/internal/workspace"
)

// SubtitleFileName is the workspace name of the generated subtitle track.
const SubtitleFileName = "subtitles.srt"

// RenderRequest is a script ready to be voiced and rendered. Exactly one of
// VisualPrompts or ImageURL is set.
type RenderRequest struct {
	Topic         string
	Script        string
	VisualPrompts []string
	ImageURL      string
}

func (r RenderRequest) validate() error {
	if strings.TrimSpace(r.Script) == "" {
		return services.Wrap(services.ErrValidation, "", "render", "script is required", nil)
	}
	hasPrompts := len(nonBlank(r.VisualPrompts)) > 0
	hasURL := strings.TrimSpace(r.ImageURL) != ""
	switch {
	case hasPrompts && hasURL:
		return services.Wrap(services.ErrValidation, "", "render", "visual_prompts and imageUrl are mutually exclusive", nil)
	case !hasPrompts && !hasURL:
		return services.Wrap(services.ErrValidation, "", "render", "visual_prompts or imageUrl is required", nil)
	}
	return nil
}

// Result describes a finished run.
type Result struct {
	RunKey          string
	OutputPath      string
	VideoURL        string
	Units           int
	SkippedUnits    int
	Images          int
	OmittedImages   int
	DisplayDuration float64
	Elapsed         time.Duration
}

// Deps are the collaborators a Runner drives. Ledger, Notifier and Music may
// be nil.
type Deps struct {
	Scripts   ScriptSource
	Speech    Synthesizer
	Assembler TrackAssembler
	Fetcher   AssetFetcher
	Engine    Engine
	Ledger    RunLedger
	Notifier  notifications.Service
	Music     MusicPicker
	// NewKey and NewRand default to NewRunKey and a PCG seeded per run.
	NewKey  func() string
	NewRand func() *rand.Rand
}

// Runner executes runs. It is safe for concurrent use; runs never share a
// workspace, and speech calls from all runs pass through the same adapter.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	style  composition.Style
	logger *slog.Logger

	mu        sync.Mutex
	active    map[string]ledger.Status
	rendering map[string]struct{}
}

// NewRunner builds a runner from explicit collaborators.
func NewRunner(cfg *config.Config, deps Deps, logger *slog.Logger) *Runner {
	if deps.Ledger == nil {
		deps.Ledger = noopLedger{}
	}
	if deps.Music == nil {
		deps.Music = noMusic{}
	}
	if deps.NewKey == nil {
		deps.NewKey = func() string { return NewRunKey(time.Now()) }
	}
	if deps.NewRand == nil {
		deps.NewRand = func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) }
	}
	return &Runner{
		cfg:       cfg,
		deps:      deps,
		style:     composition.StyleFromConfig(cfg),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		active:    make(map[string]ledger.Status),
		rendering: make(map[string]struct{}),
	}
}

// New wires the production collaborators described by cfg. A missing script
// provider credential does not fail construction; Generate reports it.
func New(cfg *config.Config, store RunLedger, logger *slog.Logger) (*Runner, error) {
	provider, err := speech.NewProvider(cfg.Narration)
	if err != nil {
		return nil, err
	}
	gate := speech.NewGate(cfg.Cooldown())
	deps := Deps{
		Speech:    speech.NewAdapter(provider, ffprobe.NewProber(cfg.FFprobeBinary()), gate, logger),
		Assembler: narration.NewAssembler(logger),
		Fetcher:   visuals.NewFetcher(cfg.Visuals, logger),
		Engine:    render.NewEngine(cfg.FFmpegBinary(), logger),
		Ledger:    store,
		Notifier:  notifications.NewService(cfg),
		Music:     music.Pool{Dir: cfg.Paths.MusicDir},
	}
	if completer, err := scriptgen.NewCompleter(cfg); err == nil {
		deps.Scripts = scriptgen.NewGenerator(completer, cfg.Generation, logger)
	} else {
		deps.Scripts = unavailableScripts{err: err}
	}
	return NewRunner(cfg, deps, logger), nil
}

// NewRunKey derives a run key from the UTC start time plus a random suffix so
// runs started in the same millisecond stay distinct.
func NewRunKey(now time.Time) string {
	return now.UTC().Format("20060102T150405.000Z") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// OutputFileName is the deterministic video name for a run key.
func OutputFileName(runKey string) string {
	return "video_" + runKey + ".mp4"
}

// VideoURL is where the HTTP server exposes a run's video.
func (r *Runner) VideoURL(runKey string) string {
	base := strings.TrimRight(strings.TrimSpace(r.cfg.API.PublicBaseURL), "/")
	return base + "/output/" + OutputFileName(runKey)
}

// Active reports how many runs are in flight.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Generate runs the generating state alone and returns the script.
func (r *Runner) Generate(ctx context.Context, topic string) (scriptgen.Script, error) {
	ctx = services.WithStage(ctx, string(ledger.StatusGenerating))
	return r.deps.Scripts.Generate(ctx, topic, r.deps.NewRand())
}

// GenerateScene is the single-image variant of Generate.
func (r *Runner) GenerateScene(ctx context.Context, topic string) (scriptgen.Scene, error) {
	ctx = services.WithStage(ctx, string(ledger.StatusGenerating))
	return r.deps.Scripts.GenerateScene(ctx, topic, r.deps.NewRand())
}

// Render voices and renders an existing script, from synthesizing to done.
func (r *Runner) Render(ctx context.Context, req RenderRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	run, ctx, err := r.begin(ctx, req.Topic, ledger.StatusSynthesizing)
	if err != nil {
		return Result{}, err
	}
	defer r.end(ctx, run)
	return r.produce(ctx, run, req)
}

// Run generates a script for topic and renders it under one run key.
func (r *Runner) Run(ctx context.Context, topic string) (Result, error) {
	if strings.TrimSpace(topic) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "", "run", "topic is required", nil)
	}
	run, ctx, err := r.begin(ctx, topic, ledger.StatusGenerating)
	if err != nil {
		return Result{}, err
	}
	defer r.end(ctx, run)

	stageCtx := r.enter(ctx, run, ledger.StatusGenerating, "")
	script, err := r.deps.Scripts.Generate(stageCtx, topic, run.rng)
	if err != nil {
		return Result{}, r.fail(stageCtx, run, err)
	}
	r.stageComplete(stageCtx, run, logging.Int("prompts", len(script.VisualPrompts)), logging.Bool("fallback_prompts", script.UsedFallback))

	return r.produce(ctx, run, RenderRequest{
		Topic:         topic,
		Script:        script.Narration,
		VisualPrompts: script.VisualPrompts,
	})
}

type activeRun struct {
	key     string
	topic   string
	status  ledger.Status
	rng     *rand.Rand
	ws      *workspace.Run
	started time.Time
	logger  *slog.Logger
}

func (r *Runner) begin(ctx context.Context, topic string, status ledger.Status) (*activeRun, context.Context, error) {
	key := r.deps.NewKey()
	ws, err := workspace.Create(r.cfg.Paths.TempDir, key)
	if err != nil {
		return nil, ctx, fmt.Errorf("create run workspace: %w", err)
	}
	ctx = services.WithRunID(ctx, key)
	run := &activeRun{
		key:     key,
		topic:   strings.TrimSpace(topic),
		status:  status,
		rng:     r.deps.NewRand(),
		ws:      ws,
		started: time.Now(),
		logger:  logging.WithContext(ctx, r.logger),
	}
	if _, err := r.deps.Ledger.Begin(ctx, key, run.topic, status); err != nil {
		r.ledgerWarning(run, "begin", err)
	}

	r.mu.Lock()
	r.active[key] = status
	r.mu.Unlock()

	run.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("topic", run.topic),
		logging.String("workspace", ws.Dir),
	)
	return run, ctx, nil
}

// end removes the workspace whatever the outcome. Cleanup is detached from
// cancellation so an aborted request still clears its temporaries.
func (r *Runner) end(ctx context.Context, run *activeRun) {
	_ = run.ws.Cleanup(context.WithoutCancel(ctx), r.logger)
	r.mu.Lock()
	delete(r.active, run.key)
	delete(r.rendering, run.key)
	r.mu.Unlock()
}

// enter moves run into status and returns the stage-scoped context.
func (r *Runner) enter(ctx context.Context, run *activeRun, status ledger.Status, detail string) context.Context {
	stageCtx := services.WithStage(ctx, string(status))
	if run.status != status {
		if err := r.deps.Ledger.Transition(stageCtx, run.key, status, detail); err != nil {
			r.ledgerWarning(run, "transition", err)
		}
		run.status = status
		r.mu.Lock()
		r.active[run.key] = status
		r.mu.Unlock()
	}
	logger := logging.WithContext(stageCtx, r.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("detail", detail),
	)
	return stageCtx
}

func (r *Runner) stageComplete(ctx context.Context, run *activeRun, attrs ...logging.Attr) {
	attrs = append(attrs, logging.String(logging.FieldEventType, "stage_complete"))
	logging.WithContext(ctx, r.logger).Info("stage completed", logging.Args(attrs...)...)
}

// fail records err against the run and returns it unchanged so the engine's
// message reaches the caller verbatim.
func (r *Runner) fail(ctx context.Context, run *activeRun, err error) error {
	if err == nil {
		return nil
	}
	reason := services.FailureReason(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = "cancelled"
	}
	logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "run failed", "stage_failed",
		logging.String("failure_reason", reason),
		logging.Duration("elapsed", time.Since(run.started)),
		logging.Error(err),
	)

	detached := context.WithoutCancel(ctx)
	if ledgerErr := r.deps.Ledger.Fail(detached, run.key, reason, err.Error()); ledgerErr != nil {
		r.ledgerWarning(run, "fail", ledgerErr)
	}
	run.status = ledger.StatusFailed
	if r.deps.Notifier != nil {
		if notifyErr := r.deps.Notifier.NotifyRunFailed(detached, run.topic, reason, err); notifyErr != nil {
			run.logger.Debug("failure notification not sent", logging.Error(notifyErr))
		}
	}
	return err
}

func (r *Runner) ledgerWarning(run *activeRun, op string, err error) {
	logging.WarnWithContext(run.logger, "run ledger update failed", "ledger_error",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check ledger_path permissions and disk space"),
		logging.String(logging.FieldImpact, "run history is incomplete; the run itself continues"),
		logging.Alert("ledger_degraded"),
	)
}

// claimRender guards against a second render of the same run.
func (r *Runner) claimRender(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.rendering[key]; busy {
		return false
	}
	r.rendering[key] = struct{}{}
	return true
}

func (r *Runner) releaseRender(key string) {
	r.mu.Lock()
	delete(r.rendering, key)
	r.mu.Unlock()
}

type unavailableScripts struct {
	err error
}

func (u unavailableScripts) Generate(context.Context, string, *rand.Rand) (scriptgen.Script, error) {
	return scriptgen.Script{}, u.err
}

func (u unavailableScripts) GenerateScene(context.Context, string, *rand.Rand) (scriptgen.Scene, error) {
	return scriptgen.Scene{}, u.err
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func subtitlePath(ws *workspace.Run) string {
	return filepath.Join(ws.Dir, SubtitleFileName)
}
