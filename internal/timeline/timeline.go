package timeline

import (
	"fmt"
	"math"

	"reelsmith/internal/chunker"
	"reelsmith/internal/services"
)

// Entry is one subtitle record. Sequence is contiguous from 1; SourceIndex
// is the original unit index so operators can cross-reference synthesis logs
// after failed units have been dropped.
type Entry struct {
	Sequence    int
	SourceIndex int
	Start       float64
	End         float64
	Text        string
}

// Duration returns the display length of the entry in seconds.
func (e Entry) Duration() float64 {
	return e.End - e.Start
}

// Timeline is the ordered subtitle track for one run.
type Timeline struct {
	Entries []Entry
	// TotalDisplayDuration equals the last entry's End, in seconds.
	TotalDisplayDuration float64
	Speed                float64
	Correction           float64
}

// RenderedAudioDuration is the narration length after the speed transform,
// which the correction factor does not touch.
func (t Timeline) RenderedAudioDuration() float64 {
	if t.Correction == 0 {
		return t.TotalDisplayDuration
	}
	return t.TotalDisplayDuration / t.Correction
}

// DisplayDuration converts one raw clip duration into its subtitle window.
func DisplayDuration(raw, speed, correction float64) float64 {
	return raw / speed * correction
}

// Build computes the timeline for units that synthesized successfully.
// units and rawSeconds must be parallel. Zero units is ErrNoAudioProduced.
func Build(units []chunker.TextUnit, rawSeconds []float64, speed, correction float64) (Timeline, error) {
	if len(units) != len(rawSeconds) {
		return Timeline{}, services.Wrap(services.ErrValidation, "timing", "build timeline",
			fmt.Sprintf("%d units but %d durations", len(units), len(rawSeconds)), nil)
	}
	if len(units) == 0 {
		return Timeline{}, services.Wrap(services.ErrNoAudioProduced, "timing", "build timeline", "no synthesized units", nil)
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return Timeline{}, services.Wrap(services.ErrValidation, "timing", "build timeline", fmt.Sprintf("playback speed %v must be positive", speed), nil)
	}
	if !(correction > 0) || math.IsInf(correction, 0) {
		return Timeline{}, services.Wrap(services.ErrValidation, "timing", "build timeline", fmt.Sprintf("sync correction %v must be positive", correction), nil)
	}

	entries := make([]Entry, 0, len(units))
	current := 0.0
	for i, unit := range units {
		raw := rawSeconds[i]
		if !(raw >= 0) || math.IsInf(raw, 0) {
			return Timeline{}, services.Wrap(services.ErrValidation, "timing", "build timeline",
				fmt.Sprintf("unit %d has invalid duration %v", unit.Index, raw), nil)
		}
		display := DisplayDuration(raw, speed, correction)
		entries = append(entries, Entry{
			Sequence:    i + 1,
			SourceIndex: unit.Index,
			Start:       current,
			End:         current + display,
			Text:        unit.Text,
		})
		current += display
	}

	return Timeline{
		Entries:              entries,
		TotalDisplayDuration: current,
		Speed:                speed,
		Correction:           correction,
	}, nil
}
