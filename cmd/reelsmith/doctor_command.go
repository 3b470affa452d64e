package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/language"
	"reelsmith/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, providers and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Services", colorize))
			endpoints := []preflight.Result{preflight.CheckEndpoint(cmd.Context(), "Image service", cfg.Visuals.BaseURL)}
			if cfg.Narration.Provider == "google_translate" {
				endpoints = append(endpoints, preflight.CheckEndpoint(cmd.Context(), "Speech service", cfg.Narration.TTSBaseURL))
			}
			for _, result := range endpoints {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Tools", colorize))
			for _, dep := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				detail := dep.Command
				if !dep.Available {
					detail = strings.TrimSpace(dep.Detail)
					if dep.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failures++
					}
				}
				fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Settings", colorize))
			fmt.Fprintln(out, renderStatusLine("Script provider", statusInfo, cfg.Generation.Provider, colorize))
			fmt.Fprintln(out, renderStatusLine("Speech provider", statusInfo, cfg.Narration.Provider, colorize))
			langKind := statusInfo
			if cfg.Narration.Language != "" && !language.Known(cfg.Narration.Language) {
				langKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Narration language", langKind, language.DisplayName(cfg.Narration.Language), colorize))
			fmt.Fprintln(out, renderStatusLine("Playback speed", statusInfo, fmt.Sprintf("%.2fx (sync correction %.2f)", cfg.Timeline.PlaybackSpeed, cfg.Timeline.SyncCorrection), colorize))
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""), colorize))
			fmt.Fprintln(out, renderStatusLine("API token", statusInfo, yesNo(cfg.API.Token != ""), colorize))

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}
