package services

import (
	"errors"
	"fmt"
	"strings"
)

// Run failure classes. Per-unit and per-asset failures are absorbed by the
// stage that produced them; the remaining markers end a run.
var (
	ErrGeneration         = errors.New("script generation failed")
	ErrSynthesis          = errors.New("speech synthesis failed")
	ErrAssembly           = errors.New("narration assembly failed")
	ErrFetch              = errors.New("image fetch failed")
	ErrInsufficientAssets = errors.New("insufficient visual assets")
	ErrNoAudioProduced    = errors.New("no audio produced")
	ErrCompositionEngine  = errors.New("composition engine failed")
)

// Ambient markers.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrBusy          = errors.New("busy")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureReason maps a run error to the short label recorded in the run
// ledger and notifications.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, ErrNoAudioProduced):
		return "no_audio"
	case errors.Is(err, ErrAssembly):
		return "assembly"
	case errors.Is(err, ErrInsufficientAssets):
		return "insufficient_assets"
	case errors.Is(err, ErrCompositionEngine):
		return "composition_engine"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "failed"
	}
}

// IsClientError reports whether err was caused by caller input rather than a
// pipeline or upstream failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
