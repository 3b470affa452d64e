package narration

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/speech"
)

// TrackFileName is the workspace file name of the assembled narration.
const TrackFileName = "narration.mp3"

// Track is the concatenated narration of one run.
type Track struct {
	Path        string
	RawDuration time.Duration
	Clips       int
	Bytes       int64
}

// RawSeconds returns the unscaled track length in seconds.
func (t Track) RawSeconds() float64 {
	return t.RawDuration.Seconds()
}

// Assembler writes narration tracks into a run directory.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler returns an assembler logging through logger.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logging.NewComponentLogger(logger, "narration")}
}

// Assemble concatenates clips ordered by unit index into dir/narration.mp3 and
// removes the clip files once the track exists. The clip files are left in
// place when assembly fails.
func (a *Assembler) Assemble(ctx context.Context, dir string, clips []speech.AudioClip) (Track, error) {
	if len(clips) == 0 {
		return Track{}, services.Wrap(services.ErrAssembly, "timing", "assemble narration", "no clips to concatenate", nil)
	}
	if err := ctx.Err(); err != nil {
		return Track{}, err
	}

	ordered := slices.Clone(clips)
	slices.SortStableFunc(ordered, func(x, y speech.AudioClip) int {
		return x.Unit.Index - y.Unit.Index
	})

	paths := make([]string, 0, len(ordered))
	var raw time.Duration
	for _, clip := range ordered {
		paths = append(paths, clip.Path)
		raw += clip.RawDuration
	}

	target := filepath.Join(dir, TrackFileName)
	written, err := fileutil.ConcatFiles(target, paths)
	if err != nil {
		return Track{}, services.Wrap(services.ErrAssembly, "timing", "assemble narration", "concatenate clips", err)
	}

	removed, errs := fileutil.RemoveAll(paths)
	for _, removeErr := range errs {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "clip cleanup failed", "cleanup",
			logging.Error(removeErr),
			logging.String(logging.FieldErrorHint, "run directory is swept when the run ends"),
		)
	}

	logging.WithContext(ctx, a.logger).Info("narration assembled",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("clips", len(ordered)),
		logging.Int("clips_removed", removed),
		logging.Duration("raw_duration", raw),
		logging.Any("bytes", written),
	)
	return Track{Path: target, RawDuration: raw, Clips: len(ordered), Bytes: written}, nil
}
