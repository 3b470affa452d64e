package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one decoded JSON log line.
type Record struct {
	Time      string
	Level     string
	Message   string
	RunID     string
	Stage     string
	Component string
	Attrs     map[string]any
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects records. Zero values match everything.
type Filter struct {
	RunID    string
	MinLevel string
}

// Parse decodes a JSON log line. Lines that are not JSON objects return false.
func Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Time:      takeString(raw, "ts"),
		Level:     strings.ToLower(takeString(raw, "level")),
		Message:   takeString(raw, "msg"),
		RunID:     takeString(raw, "run_id"),
		Stage:     takeString(raw, "stage"),
		Component: takeString(raw, "component"),
		Attrs:     raw,
	}
	return rec, true
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		if rank, known := levelRank[rec.Level]; known && rank < floor {
			return false
		}
	}
	return true
}

// Apply keeps the lines that parse and match. Unparseable lines are kept
// only when the filter is empty.
func (f Filter) Apply(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		rec, ok := Parse(line)
		if !ok {
			if f.RunID == "" && f.MinLevel == "" && strings.TrimSpace(line) != "" {
				out = append(out, Record{Message: line})
			}
			continue
		}
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Format renders rec as a single human-readable line.
func Format(rec Record) string {
	var b strings.Builder
	if rec.Time != "" {
		b.WriteString(rec.Time)
		b.WriteByte(' ')
	}
	if rec.Level != "" {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(rec.Level))
	}
	if rec.RunID != "" {
		b.WriteString("[" + rec.RunID)
		if rec.Stage != "" {
			b.WriteString("/" + rec.Stage)
		}
		b.WriteString("] ")
	}
	b.WriteString(rec.Message)

	keys := make([]string, 0, len(rec.Attrs))
	for key := range rec.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Attrs[key])
	}
	return b.String()
}

func takeString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
