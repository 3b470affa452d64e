package timeline_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/chunker"
	"reelsmith/internal/services"
	"reelsmith/internal/timeline"
)

const epsilon = 1e-9

func units(n int) []chunker.TextUnit {
	out := make([]chunker.TextUnit, n)
	for i := range out {
		out[i] = chunker.TextUnit{Index: i + 1, Text: "line"}
	}
	return out
}

func TestBuildWorkedExample(t *testing.T) {
	tl, err := timeline.Build(units(3), []float64{3.0, 4.5, 1.5}, 1.5, 0.98)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	wantDurations := []float64{1.96, 2.94, 0.98}
	wantStarts := []float64{0, 1.96, 4.90}
	for i, entry := range tl.Entries {
		if math.Abs(entry.Duration()-wantDurations[i]) > epsilon {
			t.Fatalf("entry %d duration: got %v want %v", i, entry.Duration(), wantDurations[i])
		}
		if math.Abs(entry.Start-wantStarts[i]) > epsilon {
			t.Fatalf("entry %d start: got %v want %v", i, entry.Start, wantStarts[i])
		}
	}
	if math.Abs(tl.TotalDisplayDuration-5.88) > epsilon {
		t.Fatalf("unexpected total: %v", tl.TotalDisplayDuration)
	}
	if math.Abs(tl.RenderedAudioDuration()-6.0) > epsilon {
		t.Fatalf("unexpected rendered audio duration: %v", tl.RenderedAudioDuration())
	}

	srt := tl.SRT()
	want := "1\n00:00:00,000 --> 00:00:01,960\nline\n\n" +
		"2\n00:00:01,960 --> 00:00:04,900\nline\n\n" +
		"3\n00:00:04,900 --> 00:00:05,880\nline\n\n"
	if srt != want {
		t.Fatalf("unexpected srt:\n%s\nwant:\n%s", srt, want)
	}
}

func TestBuildIsGapFreeForRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(40)
		raw := make([]float64, n)
		for i := range raw {
			raw[i] = rng.Float64() * 12
		}
		speed := 0.5 + rng.Float64()*2
		correction := 0.8 + rng.Float64()*0.4

		tl, err := timeline.Build(units(n), raw, speed, correction)
		if err != nil {
			t.Fatalf("trial %d: Build returned error: %v", trial, err)
		}
		if tl.Entries[0].Start != 0 {
			t.Fatalf("trial %d: first entry starts at %v", trial, tl.Entries[0].Start)
		}
		for i := 1; i < len(tl.Entries); i++ {
			if tl.Entries[i].Start != tl.Entries[i-1].End {
				t.Fatalf("trial %d: gap at entry %d", trial, i)
			}
		}
		if tl.Entries[n-1].End != tl.TotalDisplayDuration {
			t.Fatalf("trial %d: last end %v != total %v", trial, tl.Entries[n-1].End, tl.TotalDisplayDuration)
		}

		cues, err := timeline.ParseSRT(strings.NewReader(tl.SRT()))
		if err != nil {
			t.Fatalf("trial %d: parse: %v", trial, err)
		}
		if issues := timeline.ValidateCues(cues); len(issues) > 0 {
			t.Fatalf("trial %d: emitted track has issues: %v", trial, issues)
		}
		for i, cue := range cues {
			if math.Abs(cue.End-tl.Entries[i].End) > 0.0005+epsilon {
				t.Fatalf("trial %d: cue %d drifted: %v vs %v", trial, i, cue.End, tl.Entries[i].End)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	raw := []float64{1.234, 2.345, 3.456}
	first, err := timeline.Build(units(3), raw, 1.2, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	second, err := timeline.Build(units(3), raw, 1.2, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if first.SRT() != second.SRT() {
		t.Fatal("expected byte-identical subtitle output")
	}
}

func TestBuildRenumbersButKeepsSourceIndex(t *testing.T) {
	survivors := []chunker.TextUnit{{Index: 1, Text: "a"}, {Index: 3, Text: "c"}, {Index: 4, Text: "d"}}
	tl, err := timeline.Build(survivors, []float64{1, 1, 1}, 1, 1)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	for i, entry := range tl.Entries {
		if entry.Sequence != i+1 {
			t.Fatalf("expected contiguous sequence, got %d at %d", entry.Sequence, i)
		}
		if entry.SourceIndex != survivors[i].Index {
			t.Fatalf("expected source index %d, got %d", survivors[i].Index, entry.SourceIndex)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := timeline.Build(nil, nil, 1.2, 1); !errors.Is(err, services.ErrNoAudioProduced) {
		t.Fatalf("expected ErrNoAudioProduced, got %v", err)
	}
	if _, err := timeline.Build(units(2), []float64{1}, 1.2, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for mismatched input, got %v", err)
	}
	if _, err := timeline.Build(units(1), []float64{1}, 0, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero speed, got %v", err)
	}
	if _, err := timeline.Build(units(1), []float64{1}, 1, -1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative correction, got %v", err)
	}
	if _, err := timeline.Build(units(1), []float64{math.NaN()}, 1, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for NaN duration, got %v", err)
	}
}

func TestFormatAndParseTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.0004, "00:00:01,000"},
		{1.0006, "00:00:01,001"},
		{61.25, "00:01:01,250"},
		{3723.5, "01:02:03,500"},
		{-4, "00:00:00,000"},
	}
	for _, tc := range tests {
		if got := timeline.FormatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q want %q", tc.seconds, got, tc.want)
		}
	}
	parsed, err := timeline.ParseTimestamp("01:02:03.500")
	if err != nil || parsed != 3723.5 {
		t.Fatalf("ParseTimestamp = %v, %v", parsed, err)
	}
	if _, err := timeline.ParseTimestamp("1:2"); err == nil {
		t.Fatal("expected malformed timestamp error")
	}
}

func TestValidateCuesFlagsGaps(t *testing.T) {
	cues := []timeline.Cue{
		{Index: 1, Start: 0, End: 1},
		{Index: 3, Start: 1.5, End: 2},
	}
	issues := timeline.ValidateCues(cues)
	if len(issues) != 2 {
		t.Fatalf("expected index gap and discontinuity, got %v", issues)
	}
}

func TestSaveSRT(t *testing.T) {
	tl, err := timeline.Build(units(2), []float64{2, 2}, 1, 1)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "run", "subtitles.srt")
	if err := tl.SaveSRT(path); err != nil {
		t.Fatalf("SaveSRT returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if string(data) != tl.SRT() {
		t.Fatalf("saved content differs from rendered content")
	}
}

func TestCheckFile(t *testing.T) {
	tl, err := timeline.Build(units(3), []float64{3.0, 4.5, 1.5}, 1.5, 0.98)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	good := filepath.Join(dir, "good.srt")
	if err := tl.SaveSRT(good); err != nil {
		t.Fatal(err)
	}
	issues, err := timeline.CheckFile(good)
	if err != nil || len(issues) != 0 {
		t.Fatalf("expected clean track, got issues=%v err=%v", issues, err)
	}

	gapped := filepath.Join(dir, "gapped.srt")
	doc := "1\n00:00:00,000 --> 00:00:01,000\nOne.\n\n2\n00:00:01,500 --> 00:00:02,000\nTwo.\n\n"
	if err := os.WriteFile(gapped, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	issues, err = timeline.CheckFile(gapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || !strings.HasPrefix(issues[0], "discontinuity") {
		t.Fatalf("expected one discontinuity, got %v", issues)
	}

	if _, err := timeline.CheckFile(filepath.Join(dir, "missing.srt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
