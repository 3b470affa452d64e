package preflight

import (
	"context"
	"os"
	"strings"

	"reelsmith/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}

	// Music is optional; only an existing directory is checked.
	if dir := strings.TrimSpace(cfg.Paths.MusicDir); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			results = append(results, CheckDirectoryAccess("Music directory", dir))
		}
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Generation.Provider), "llm") {
		results = append(results, CheckLLM(ctx, "Script LLM", cfg.GetLLM()))
	}

	return results
}
