package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RequiredFilters lists the ffmpeg filters the composition plan uses.
var RequiredFilters = []string{"scale", "crop", "setsar", "zoompan", "concat", "tpad", "subtitles", "atempo", "volume", "amix"}

// CheckFFmpegFilters runs `ffmpeg -filters` and reports whether every
// required filter is compiled in. subtitles needs an ffmpeg built with libass.
func CheckFFmpegFilters(ctx context.Context, binary string) Status {
	status := Status{
		Name:        "FFmpeg filters",
		Command:     strings.TrimSpace(binary),
		Description: "Filters used by the composition plan",
	}
	if status.Command == "" {
		status.Command = "ffmpeg"
	}

	output, err := exec.CommandContext(ctx, status.Command, "-hide_banner", "-filters").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("list filters: %v", err)
		return status
	}

	available := parseFilterNames(output)
	var missing []string
	for _, name := range RequiredFilters {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		status.Detail = "missing filters: " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

// parseFilterNames extracts filter names from `ffmpeg -filters` output, whose
// data lines look like " TSC zoompan           V->V       Apply Zoom & Pan effect.".
func parseFilterNames(output []byte) map[string]struct{} {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		names[fields[1]] = struct{}{}
	}
	return names
}
