package httpapi

import "time"

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Topic string `json:"topic"`
}

// GenerateResponse is the multi-scene generate result.
type GenerateResponse struct {
	Narration     string   `json:"narration"`
	VisualPrompts []string `json:"visual_prompts"`
}

// SceneResponse is the single-scene generate result (?mode=scene).
type SceneResponse struct {
	Script      string `json:"script"`
	ImagePrompt string `json:"imagePrompt"`
}

// RenderRequest is the body of POST /api/render. Exactly one of
// VisualPrompts or ImageURL is expected.
type RenderRequest struct {
	Topic         string   `json:"topic,omitempty"`
	Script        string   `json:"script"`
	VisualPrompts []string `json:"visual_prompts,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// RenderResponse carries the served location of the finished video.
type RenderResponse struct {
	VideoURL string `json:"videoUrl"`
}

// ErrorResponse is returned on any failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse summarizes readiness.
type HealthResponse struct {
	Status       string             `json:"status"`
	ActiveRuns   int                `json:"activeRuns"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// DependencyStatus mirrors deps.Status for JSON.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors preflight.Result for JSON.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunView is one ledger row as served by GET /api/runs.
type RunView struct {
	Key           string     `json:"key"`
	Topic         string     `json:"topic,omitempty"`
	Status        string     `json:"status"`
	Detail        string     `json:"detail,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	Error         string     `json:"error,omitempty"`
	VideoURL      string     `json:"videoUrl,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// RunsResponse is the body of GET /api/runs.
type RunsResponse struct {
	Runs []RunView `json:"runs"`
}
