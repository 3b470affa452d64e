package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reelsmith/internal/chunker"
	"reelsmith/internal/composition"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
	"reelsmith/internal/speech"
	"reelsmith/internal/timeline"
	"reelsmith/internal/visuals"
)

// produce runs synthesizing through done for an active run.
func (r *Runner) produce(ctx context.Context, run *activeRun, req RenderRequest) (Result, error) {
	units := chunker.Split(req.Script, r.cfg.Narration.MaxChunkLength)
	stageCtx := r.enter(ctx, run, ledger.StatusSynthesizing, fmt.Sprintf("%d units", len(units)))
	clips, skipped, err := r.synthesize(stageCtx, run, units)
	if err != nil {
		return Result{}, r.fail(stageCtx, run, err)
	}
	r.stageComplete(stageCtx, run, logging.Int("units", len(clips)), logging.Int("skipped_units", skipped))

	musicPath := r.pickMusic(ctx, run)

	prompts := nonBlank(req.VisualPrompts)
	timingCtx := r.enter(ctx, run, ledger.StatusTiming, fmt.Sprintf("%d clips", len(clips)))
	fetchDetail := fmt.Sprintf("%d prompts", len(prompts))
	if req.ImageURL != "" {
		fetchDetail = "single image"
	}
	fetchCtx := r.enter(ctx, run, ledger.StatusFetching, fetchDetail)

	var (
		tl     timeline.Timeline
		track  narration.Track
		assets visuals.Result
	)
	var timingErr, fetchErr error
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		stageCtx := mergeStage(groupCtx, timingCtx)
		tl, track, timingErr = r.timing(stageCtx, run, clips)
		if timingErr != nil {
			return timingErr
		}
		r.stageComplete(stageCtx, run,
			logging.Int("entries", len(tl.Entries)),
			logging.Float64("display_seconds", tl.TotalDisplayDuration),
			logging.Float64("raw_seconds", track.RawSeconds()),
		)
		return nil
	})
	group.Go(func() error {
		stageCtx := mergeStage(groupCtx, fetchCtx)
		assets, fetchErr = r.fetch(stageCtx, run, req, prompts)
		if fetchErr != nil {
			return fetchErr
		}
		r.stageComplete(stageCtx, run,
			logging.Int("images", len(assets.Assets)),
			logging.Int("omitted_images", len(assets.Failures)),
		)
		return nil
	})
	if err := group.Wait(); err != nil {
		failedCtx := fetchCtx
		if errors.Is(err, timingErr) {
			failedCtx = timingCtx
		}
		return Result{}, r.fail(failedCtx, run, err)
	}

	planCtx := r.enter(ctx, run, ledger.StatusPlanning, fmt.Sprintf("%d images", len(assets.Assets)))
	outputPath := filepath.Join(r.cfg.Paths.OutputDir, OutputFileName(run.key))
	plan, err := composition.Build(composition.Sources{
		Assets:       assets.Assets,
		Narration:    track,
		Timeline:     tl,
		SubtitlePath: subtitlePath(run.ws),
		MusicPath:    musicPath,
		OutputPath:   outputPath,
	}, r.style)
	if err != nil {
		return Result{}, r.fail(planCtx, run, err)
	}
	r.stageComplete(planCtx, run,
		logging.Float64("image_window", plan.ImageWindow),
		logging.Int("frames_per_image", plan.FramesPerImage),
		logging.Float64("rendered_seconds", plan.RenderedDuration),
	)

	renderCtx := r.enter(ctx, run, ledger.StatusRendering, filepath.Base(outputPath))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, r.fail(renderCtx, run, fmt.Errorf("create output directory: %w", err))
	}
	output, err := r.render(renderCtx, run, plan)
	if err != nil {
		return Result{}, r.fail(renderCtx, run, err)
	}

	result := Result{
		RunKey:          run.key,
		OutputPath:      output.Path,
		VideoURL:        r.VideoURL(run.key),
		Units:           len(clips),
		SkippedUnits:    skipped,
		Images:          len(assets.Assets),
		OmittedImages:   len(assets.Failures),
		DisplayDuration: tl.TotalDisplayDuration,
		Elapsed:         time.Since(run.started),
	}
	r.finish(renderCtx, run, result)
	return result, nil
}

// synthesize voices units one at a time. Failed units are skipped; the run
// fails only when none succeed or the context ends.
func (r *Runner) synthesize(ctx context.Context, run *activeRun, units []chunker.TextUnit) ([]speech.AudioClip, int, error) {
	if len(units) == 0 {
		return nil, 0, services.Wrap(services.ErrNoAudioProduced, "synthesizing", "synthesize narration", "script has no speakable text", nil)
	}
	logger := logging.WithContext(ctx, r.logger)
	clips := make([]speech.AudioClip, 0, len(units))
	var lastErr error
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		clip, err := r.deps.Speech.Synthesize(ctx, run.ws.Dir, unit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			lastErr = err
			logging.WarnWithContext(logger, "unit skipped", "chunk_skipped",
				logging.Int("unit", unit.Index),
				logging.Int("chars", unit.Len()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the speech provider and cooldown_seconds"),
				logging.String(logging.FieldImpact, "subtitle and narration omit this unit"),
			)
			continue
		}
		clips = append(clips, clip)
	}
	skipped := len(units) - len(clips)
	if len(clips) == 0 {
		return nil, skipped, services.Wrap(services.ErrNoAudioProduced, "synthesizing", "synthesize narration",
			fmt.Sprintf("all %d units failed", len(units)), lastErr)
	}
	return clips, skipped, nil
}

// timing builds the subtitle timeline, writes it, and joins the clips.
func (r *Runner) timing(ctx context.Context, run *activeRun, clips []speech.AudioClip) (timeline.Timeline, narration.Track, error) {
	units := make([]chunker.TextUnit, 0, len(clips))
	raw := make([]float64, 0, len(clips))
	for _, clip := range clips {
		units = append(units, clip.Unit)
		raw = append(raw, clip.RawSeconds())
	}
	tl, err := timeline.Build(units, raw, r.cfg.Timeline.PlaybackSpeed, r.cfg.Timeline.SyncCorrection)
	if err != nil {
		return timeline.Timeline{}, narration.Track{}, err
	}
	if err := tl.SaveSRT(subtitlePath(run.ws)); err != nil {
		return timeline.Timeline{}, narration.Track{}, fmt.Errorf("write subtitles: %w", err)
	}
	r.checkSubtitles(ctx, run, len(tl.Entries))
	track, err := r.deps.Assembler.Assemble(ctx, run.ws.Dir, clips)
	if err != nil {
		return timeline.Timeline{}, narration.Track{}, err
	}
	return tl, track, nil
}

// checkSubtitles reads the written track back. Problems are logged, not fatal.
func (r *Runner) checkSubtitles(ctx context.Context, run *activeRun, entries int) {
	logger := logging.WithContext(ctx, r.logger)
	issues, err := timeline.CheckFile(subtitlePath(run.ws))
	switch {
	case err != nil:
		logging.WarnWithContext(logger, "subtitle track unreadable", "subtitle_check",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the run's subtitles.srt"),
			logging.String(logging.FieldImpact, "burned-in subtitles may be missing"),
		)
	case len(issues) > 0:
		logging.WarnWithContext(logger, "subtitle track failed check", "subtitle_check",
			logging.Int("issue_count", len(issues)),
			logging.String("issues", strings.Join(issues, "; ")),
			logging.String(logging.FieldImpact, "subtitles may drift from narration"),
		)
	default:
		logger.Debug("subtitle track verified", logging.Int("cues", entries))
	}
}

// fetch downloads the run's images and applies the viability threshold.
func (r *Runner) fetch(ctx context.Context, run *activeRun, req RenderRequest, prompts []string) (visuals.Result, error) {
	if imageURL := strings.TrimSpace(req.ImageURL); imageURL != "" {
		asset, err := r.deps.Fetcher.FetchURL(ctx, run.ws.Dir, imageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return visuals.Result{}, ctxErr
			}
			if services.IsClientError(err) {
				return visuals.Result{}, err
			}
			return visuals.Result{}, services.Wrap(services.ErrInsufficientAssets, "fetching", "fetch image", "0 of 1 images fetched", err)
		}
		return visuals.Result{Requested: 1, Assets: []visuals.Asset{asset}}, nil
	}

	result, err := r.deps.Fetcher.FetchAll(ctx, run.ws.Dir, prompts, run.rng)
	if err != nil {
		return visuals.Result{}, err
	}
	if err := visuals.CheckViable(result.Requested, len(result.Assets), r.cfg.Visuals.MinViableRatio); err != nil {
		return visuals.Result{}, err
	}
	return result, nil
}

// render hands plan to the engine. At most one render per run is outstanding.
func (r *Runner) render(ctx context.Context, run *activeRun, plan composition.Plan) (render.Output, error) {
	if !r.claimRender(run.key) {
		return render.Output{}, services.Wrap(services.ErrBusy, "rendering", "render", "render already in progress for run "+run.key, nil)
	}
	defer r.releaseRender(run.key)
	return r.deps.Engine.Render(ctx, plan)
}

func (r *Runner) finish(ctx context.Context, run *activeRun, result Result) {
	detached := context.WithoutCancel(ctx)
	if err := r.deps.Ledger.Finish(detached, run.key, result.OutputPath); err != nil {
		r.ledgerWarning(run, "finish", err)
	}
	run.status = ledger.StatusDone
	logging.WithContext(ctx, r.logger).Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", result.OutputPath),
		logging.String("video_url", result.VideoURL),
		logging.Int("units", result.Units),
		logging.Int("skipped_units", result.SkippedUnits),
		logging.Int("images", result.Images),
		logging.Int("omitted_images", result.OmittedImages),
		logging.Float64("display_seconds", result.DisplayDuration),
		logging.Duration("elapsed", result.Elapsed),
	)
	if r.deps.Notifier != nil {
		if err := r.deps.Notifier.NotifyRunCompleted(detached, run.topic, result.VideoURL, result.Elapsed); err != nil {
			run.logger.Debug("completion notification not sent", logging.Error(err))
		}
	}
}

// pickMusic selects a background track. Music is optional, so failures only warn.
func (r *Runner) pickMusic(ctx context.Context, run *activeRun) string {
	path, err := r.deps.Music.Pick(run.rng)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "background music unavailable", "music_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check music_dir"),
			logging.String(logging.FieldImpact, "video is rendered with narration only"),
		)
		return ""
	}
	result, reason := "none", "music directory empty or absent"
	if path != "" {
		result, reason = "track", filepath.Base(path)
	}
	logging.WithContext(ctx, r.logger).Debug("background music selected",
		logging.Args(logging.DecisionAttrs("background_music", result, reason)...)...)
	return path
}

// mergeStage keeps the errgroup's cancellation while carrying the stage
// annotation of stageCtx.
func mergeStage(groupCtx, stageCtx context.Context) context.Context {
	if stage, ok := services.StageFromContext(stageCtx); ok {
		return services.WithStage(groupCtx, stage)
	}
	return groupCtx
}
