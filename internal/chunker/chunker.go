package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the character ceiling applied when callers pass a
// non-positive limit.
const DefaultMaxLength = 180

// TextUnit is one ordered, 1-indexed slice of narration.
type TextUnit struct {
	Index int
	Text  string
}

// Len returns the unit length in characters.
func (u TextUnit) Len() int {
	return utf8.RuneCountInString(u.Text)
}

func isBreak(r rune) bool {
	switch r {
	case '.', '!', '?', ',', ';', ':':
		return true
	}
	return false
}

// Sentences segments text at sentence-ending punctuation and soft breaks.
// Punctuation stays attached to the fragment it ends, runs such as "..." or
// "?!" included. Whitespace-only fragments are dropped.
func Sentences(text string) []string {
	text = normalize(text)
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		fragment := strings.TrimSpace(current.String())
		current.Reset()
		if fragment == "" {
			return
		}
		if strings.IndexFunc(fragment, func(r rune) bool { return !isBreak(r) && !unicode.IsSpace(r) }) < 0 && len(out) > 0 {
			// Bare punctuation belongs to the previous fragment.
			out[len(out)-1] += fragment
			return
		}
		out = append(out, fragment)
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if !isBreak(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isBreak(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		flush()
	}
	flush()
	return out
}

// Split packs sentences greedily into units of at most maxLength characters.
// A sentence that alone exceeds maxLength is emitted whole as its own unit.
func Split(text string, maxLength int) []TextUnit {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var (
		units     []TextUnit
		buffer    strings.Builder
		bufferLen int
	)
	closeUnit := func() {
		if bufferLen == 0 {
			return
		}
		units = append(units, TextUnit{Index: len(units) + 1, Text: buffer.String()})
		buffer.Reset()
		bufferLen = 0
	}

	for _, sentence := range Sentences(text) {
		length := utf8.RuneCountInString(sentence)
		if bufferLen > 0 && bufferLen+1+length > maxLength {
			closeUnit()
		}
		if bufferLen > 0 {
			buffer.WriteByte(' ')
			bufferLen++
		}
		buffer.WriteString(sentence)
		bufferLen += length
	}
	closeUnit()
	return units
}

// normalize composes Unicode (so precomposed and combining diacritics count
// the same) and collapses whitespace runs to single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
