package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelsmith/internal/chunker"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// ErrEmptyAudio is reported when a provider answers without audio bytes.
var ErrEmptyAudio = errors.New("empty audio response")

// Provider produces encoded audio for a piece of text.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DurationProbe measures the playable length of an audio file.
type DurationProbe interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// AudioClip is the synthesized speech for exactly one unit. The file at Path
// is a run-scoped temporary owned by the caller.
type AudioClip struct {
	Unit        chunker.TextUnit
	Path        string
	RawDuration time.Duration
}

// RawSeconds returns the unscaled clip length in seconds.
func (c AudioClip) RawSeconds() float64 {
	return c.RawDuration.Seconds()
}

// SynthesisError reports a failed unit. It matches services.ErrSynthesis.
type SynthesisError struct {
	Unit     int
	Provider string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize unit %d via %s: %v", e.Unit, e.Provider, e.Err)
}

func (e *SynthesisError) Unwrap() []error {
	return []error{services.ErrSynthesis, e.Err}
}

// Adapter synthesizes one unit at a time into dir.
type Adapter struct {
	provider Provider
	probe    DurationProbe
	gate     *Gate
	logger   *slog.Logger
}

// NewAdapter wires a provider, probe, and gate. A nil gate disables the cooldown.
func NewAdapter(provider Provider, probe DurationProbe, gate *Gate, logger *slog.Logger) *Adapter {
	if gate == nil {
		gate = NewGate(0)
	}
	return &Adapter{
		provider: provider,
		probe:    probe,
		gate:     gate,
		logger:   logging.NewComponentLogger(logger, "speech"),
	}
}

// Synthesize converts unit into a clip file inside dir and measures it.
// Context cancellation while waiting for the gate is returned unwrapped so the
// caller can stop instead of skipping the unit.
func (a *Adapter) Synthesize(ctx context.Context, dir string, unit chunker.TextUnit) (AudioClip, error) {
	var data []byte
	err := a.gate.Do(ctx, func() error {
		var callErr error
		data, callErr = a.provider.Synthesize(ctx, unit.Text)
		return callErr
	})
	if err != nil {
		if errors.Is(err, ErrGateCancelled) {
			return AudioClip{}, ctx.Err()
		}
		return AudioClip{}, a.fail(unit, err)
	}
	if len(data) == 0 {
		return AudioClip{}, a.fail(unit, ErrEmptyAudio)
	}

	path := filepath.Join(dir, ClipFileName(unit.Index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return AudioClip{}, a.fail(unit, fmt.Errorf("write clip: %w", err))
	}

	duration, err := a.probe.Duration(ctx, path)
	if err != nil {
		_ = os.Remove(path)
		return AudioClip{}, a.fail(unit, fmt.Errorf("probe duration: %w", err))
	}
	if duration <= 0 {
		_ = os.Remove(path)
		return AudioClip{}, a.fail(unit, ErrEmptyAudio)
	}

	a.logger.Debug("unit synthesized",
		logging.Int("unit", unit.Index),
		logging.Int("bytes", len(data)),
		logging.Duration("raw_duration", duration),
	)
	return AudioClip{Unit: unit, Path: path, RawDuration: duration}, nil
}

func (a *Adapter) fail(unit chunker.TextUnit, err error) error {
	return &SynthesisError{Unit: unit.Index, Provider: a.provider.Name(), Err: err}
}

// ClipFileName is the workspace file name for a unit's clip.
func ClipFileName(index int) string {
	return fmt.Sprintf("unit_%04d.mp3", index)
}
