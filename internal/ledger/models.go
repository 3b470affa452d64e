package ledger

import (
	"strings"
	"time"
)

// Status is the persisted state of a run.
type Status string

const (
	StatusGenerating   Status = "generating"
	StatusSynthesizing Status = "synthesizing"
	StatusTiming       Status = "timing"
	StatusFetching     Status = "fetching"
	StatusPlanning     Status = "planning"
	StatusRendering    Status = "rendering"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// InterruptedReason is recorded for runs that were in flight when the server stopped.
const InterruptedReason = "interrupted by restart"

var allStatuses = []Status{
	StatusGenerating,
	StatusSynthesizing,
	StatusTiming,
	StatusFetching,
	StatusPlanning,
	StatusRendering,
	StatusDone,
	StatusFailed,
}

// Timing and fetching run side by side, so a run may report either first.
var forwardTransitions = map[Status][]Status{
	StatusGenerating:   {StatusSynthesizing},
	StatusSynthesizing: {StatusTiming, StatusFetching},
	StatusTiming:       {StatusFetching, StatusPlanning},
	StatusFetching:     {StatusTiming, StatusPlanning},
	StatusPlanning:     {StatusRendering},
	StatusRendering:    {StatusDone},
}

// ParseStatus converts a string into a Status, returning false when unknown.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether a run in s may move to next. Failed is
// reachable from every non-terminal status.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Run is one ledger row.
type Run struct {
	Key           string
	Topic         string
	Status        Status
	Detail        string
	FailureReason string
	ErrorMessage  string
	OutputPath    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    time.Time
}

// Elapsed returns the wall time between creation and completion, or until
// now for runs still in flight.
func (r Run) Elapsed(now time.Time) time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = now
	}
	if r.CreatedAt.IsZero() || end.Before(r.CreatedAt) {
		return 0
	}
	return end.Sub(r.CreatedAt)
}
