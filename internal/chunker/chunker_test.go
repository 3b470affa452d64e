package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"reelsmith/internal/chunker"
)

func TestSentencesKeepPunctuation(t *testing.T) {
	got := chunker.Sentences("The door creaked.  Who's there?! Nobody, just wind...  ")
	want := []string{"The door creaked.", "Who's there?!", "Nobody,", "just wind..."}
	if len(got) != len(want) {
		t.Fatalf("unexpected sentence count: got %q want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSentencesTrailingFragmentWithoutPunctuation(t *testing.T) {
	got := chunker.Sentences("First. second part")
	if len(got) != 2 || got[1] != "second part" {
		t.Fatalf("unexpected sentences: %q", got)
	}
}

func TestSplitPacksGreedily(t *testing.T) {
	text := "One two three. Four five six. Seven eight nine."
	units := chunker.Split(text, 30)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %+v", len(units), units)
	}
	if units[0].Text != "One two three. Four five six." {
		t.Fatalf("unexpected first unit: %q", units[0].Text)
	}
	if units[1].Text != "Seven eight nine." {
		t.Fatalf("unexpected second unit: %q", units[1].Text)
	}
	for i, unit := range units {
		if unit.Index != i+1 {
			t.Fatalf("expected 1-based contiguous index, got %d at %d", unit.Index, i)
		}
	}
}

func TestSplitPassesLongSentenceThrough(t *testing.T) {
	long := strings.Repeat("a", 50) + "."
	units := chunker.Split("Short. "+long+" Tail.", 20)
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d: %+v", len(units), units)
	}
	if units[1].Text != long {
		t.Fatalf("expected long sentence unmodified, got %q", units[1].Text)
	}
}

func TestSplitReproducesContent(t *testing.T) {
	text := "Đêm đó, trời mưa rất to. Tôi nghe tiếng gõ cửa!  Ai vậy? Không ai trả lời; chỉ có tiếng gió: lạnh lẽo."
	for _, limit := range []int{1, 10, 25, 60, 180, 1000} {
		units := chunker.Split(text, limit)
		var joined []string
		for _, unit := range units {
			if strings.TrimSpace(unit.Text) == "" {
				t.Fatalf("limit %d: empty unit", limit)
			}
			joined = append(joined, unit.Text)
		}
		if strings.Join(strings.Fields(strings.Join(joined, " ")), "") != strings.Join(strings.Fields(text), "") {
			t.Fatalf("limit %d: content not reproduced: %q", limit, joined)
		}
	}
}

func TestSplitRespectsBoundForFittingSentences(t *testing.T) {
	text := strings.Repeat("Một câu ngắn thôi. ", 40)
	for _, unit := range chunker.Split(text, 180) {
		if n := utf8.RuneCountInString(unit.Text); n > 180 {
			t.Fatalf("unit exceeds bound: %d runes", n)
		}
		if unit.Len() != utf8.RuneCountInString(unit.Text) {
			t.Fatalf("Len mismatch for %q", unit.Text)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if units := chunker.Split("   \n\t ", 180); len(units) != 0 {
		t.Fatalf("expected no units, got %+v", units)
	}
}

func TestSplitDefaultsLimit(t *testing.T) {
	text := strings.Repeat("word ", 30) + "end."
	if units := chunker.Split(text, 0); len(units) != 1 {
		t.Fatalf("expected default limit to keep %d runes in one unit, got %d units", utf8.RuneCountInString(text), len(units))
	}
}
