package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/preflight"
	"reelsmith/internal/services"
)

const defaultRunsLimit = 20

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	if r.URL.Query().Get("mode") == "scene" {
		scene, err := s.pipeline.GenerateScene(r.Context(), topic)
		if err != nil {
			s.writeFailure(r.Context(), w, "generate scene", err)
			return
		}
		s.writeJSON(w, http.StatusOK, SceneResponse{Script: scene.Script, ImagePrompt: scene.ImagePrompt})
		return
	}

	script, err := s.pipeline.Generate(r.Context(), topic)
	if err != nil {
		s.writeFailure(r.Context(), w, "generate", err)
		return
	}
	prompts := script.VisualPrompts
	if prompts == nil {
		prompts = []string{}
	}
	s.writeJSON(w, http.StatusOK, GenerateResponse{Narration: script.Narration, VisualPrompts: prompts})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req RenderRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.pipeline.Render(r.Context(), pipeline.RenderRequest{
		Topic:         req.Topic,
		Script:        req.Script,
		VisualPrompts: req.VisualPrompts,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		s.writeFailure(r.Context(), w, "render", err)
		return
	}
	s.writeJSON(w, http.StatusOK, RenderResponse{VideoURL: result.VideoURL})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health := s.health
	if health == nil {
		health = DefaultHealth(s.cfg)
	}
	payload := health(r.Context())
	payload.ActiveRuns = s.pipeline.Active()
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.runs == nil {
		s.writeJSON(w, http.StatusOK, RunsResponse{Runs: []RunView{}})
		return
	}
	limit := defaultRunsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	runs, err := s.runs.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, s.runView(run))
	}
	s.writeJSON(w, http.StatusOK, RunsResponse{Runs: views})
}

func (s *Server) runView(run ledger.Run) RunView {
	view := RunView{
		Key:           run.Key,
		Topic:         run.Topic,
		Status:        string(run.Status),
		Detail:        run.Detail,
		FailureReason: run.FailureReason,
		Error:         run.ErrorMessage,
		CreatedAt:     run.CreatedAt,
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		view.FinishedAt = &finished
	}
	if run.Status == ledger.StatusDone {
		base := strings.TrimRight(strings.TrimSpace(s.cfg.API.PublicBaseURL), "/")
		view.VideoURL = base + "/output/" + pipeline.OutputFileName(run.Key)
	}
	return view
}

// DefaultHealth reports directory checks, the LLM check when configured,
// and external binary availability.
func DefaultHealth(cfg *config.Config) HealthFunc {
	return func(ctx context.Context) HealthResponse {
		payload := HealthResponse{Status: "ok"}
		for _, res := range preflight.RunAll(ctx, cfg) {
			payload.Checks = append(payload.Checks, CheckResult{Name: res.Name, Passed: res.Passed, Detail: res.Detail})
			if !res.Passed {
				payload.Status = "degraded"
			}
		}
		for _, dep := range preflight.CheckSystemDeps(ctx, cfg) {
			payload.Dependencies = append(payload.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			})
			if !dep.Available && !dep.Optional {
				payload.Status = "degraded"
			}
		}
		return payload
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			s.writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		}
		return false
	}
	return true
}

// writeFailure maps client mistakes to 400 and everything else to 500. The
// error text is returned verbatim so engine diagnostics reach the caller.
func (s *Server) writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if services.IsClientError(err) {
		status = http.StatusBadRequest
	}
	logging.WithContext(ctx, s.logger).Warn("request failed",
		logging.String("operation", op),
		logging.Int("status", status),
		logging.String(logging.FieldEventType, "request_failed"),
		logging.String("reason", services.FailureReason(err)),
		logging.Error(err),
	)
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
