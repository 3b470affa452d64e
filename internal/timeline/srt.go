package timeline

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm rounded to the nearest millisecond.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	msTotal := int64(math.Round(seconds * 1000))
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads HH:MM:SS,mmm (a period separator is accepted) into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// WriteSRT renders the timeline as an SRT document.
func (t Timeline) WriteSRT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, entry := range t.Entries {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			entry.Sequence, FormatTimestamp(entry.Start), FormatTimestamp(entry.End), entry.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SRT returns the rendered SRT document.
func (t Timeline) SRT() string {
	var sb strings.Builder
	_ = t.WriteSRT(&sb)
	return sb.String()
}

// SaveSRT writes the SRT document to path, creating parent directories.
func (t Timeline) SaveSRT(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	if err := t.WriteSRT(file); err != nil {
		file.Close()
		return fmt.Errorf("write subtitle file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close subtitle file: %w", err)
	}
	return nil
}

// Cue is one parsed SRT record with millisecond-granularity times.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// ParseSRT reads SRT cues. Multi-line cue text is joined with newlines.
func ParseSRT(r io.Reader) ([]Cue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}
	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("malformed cue %q", block)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("cue index %q: %w", lines[0], err)
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("cue %d: missing time range", index)
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: strings.Join(lines[2:], "\n")})
	}
	return cues, nil
}

// ValidateCues reports format issues: non-contiguous indices, inverted
// ranges, and gaps or overlaps between consecutive cues. An empty slice
// means the track is playable as a continuous narration overlay.
func ValidateCues(cues []Cue) []string {
	if len(cues) == 0 {
		return []string{"empty_subtitle_track"}
	}
	var issues []string
	if cues[0].Start != 0 {
		issues = append(issues, fmt.Sprintf("first_cue_offset: start=%.3f", cues[0].Start))
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: cue %d has index %d", i+1, cue.Index))
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("inverted_range: cue %d", cue.Index))
		}
		if i > 0 && math.Abs(cue.Start-cues[i-1].End) > 0.0005 {
			issues = append(issues, fmt.Sprintf("discontinuity: cue %d starts %.3f after previous end %.3f", cue.Index, cue.Start, cues[i-1].End))
		}
	}
	return issues
}

// CheckFile parses the SRT document at path and returns ValidateCues issues.
func CheckFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle file: %w", err)
	}
	defer file.Close()
	cues, err := ParseSRT(file)
	if err != nil {
		return nil, err
	}
	return ValidateCues(cues), nil
}
