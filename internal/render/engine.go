package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"reelsmith/internal/composition"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const maxStderrBytes = 8 << 10

var commandContext = exec.CommandContext

// EngineError reports a failed render. Error returns the engine's own
// diagnostic text. It matches services.ErrCompositionEngine.
type EngineError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EngineError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
}

func (e *EngineError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrCompositionEngine}
	}
	return []error{services.ErrCompositionEngine, e.Err}
}

// Output describes a finished video.
type Output struct {
	Path    string
	Bytes   int64
	Elapsed time.Duration
}

// Engine runs ffmpeg.
type Engine struct {
	binary string
	logger *slog.Logger
}

// NewEngine returns an engine invoking binary.
func NewEngine(binary string, logger *slog.Logger) *Engine {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Engine{binary: binary, logger: logging.NewComponentLogger(logger, "render")}
}

// Render executes plan and verifies the output file exists. A partial output
// is removed when the engine fails.
func (e *Engine) Render(ctx context.Context, plan composition.Plan) (Output, error) {
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.Int("images", plan.ImageCount),
		logging.Float64("display_seconds", plan.DisplayDuration),
		logging.Float64("speed", plan.Speed),
		logging.Bool("music", plan.HasMusic),
		logging.String("output", plan.OutputPath),
	)
	logger.Debug("render command", logging.String("filter_complex", plan.FilterComplex()))

	started := time.Now()
	var stderr bytes.Buffer
	cmd := commandContext(ctx, e.binary, plan.Args()...) //nolint:gosec
	cmd.Stderr = &limitedBuffer{buf: &stderr, limit: maxStderrBytes}
	runErr := cmd.Run()
	elapsed := time.Since(started)

	if runErr != nil {
		_ = os.Remove(plan.OutputPath)
		engineErr := &EngineError{ExitCode: -1, Stderr: stderr.String(), Err: runErr}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			engineErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			engineErr.Err = errors.Join(runErr, ctxErr)
		}
		return Output{}, engineErr
	}

	info, err := os.Stat(plan.OutputPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(plan.OutputPath)
		return Output{}, &EngineError{Stderr: stderr.String(), Err: errors.New("ffmpeg produced no output file")}
	}

	logger.Info("render complete",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", plan.OutputPath),
		logging.Any("bytes", info.Size()),
		logging.Duration("elapsed", elapsed),
	)
	return Output{Path: plan.OutputPath, Bytes: info.Size(), Elapsed: elapsed}, nil
}

// limitedBuffer keeps the first limit bytes written and discards the rest.
type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.limit - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}
