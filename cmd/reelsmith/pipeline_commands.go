package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var scene bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Write a narration script and image prompts for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, closeFn, err := ctx.openRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			runCtx, cancel := interruptible(cmd.Context())
			defer cancel()
			topic := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if scene {
				result, err := runner.GenerateScene(runCtx, topic)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]string{"script": result.Script, "imagePrompt": result.ImagePrompt})
				}
				fmt.Fprintf(out, "Style: %s\n\n%s\n\nImage prompt:\n  %s\n", result.Style, result.Script, result.ImagePrompt)
				return nil
			}

			script, err := runner.Generate(runCtx, topic)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"narration": script.Narration, "visual_prompts": script.VisualPrompts})
			}
			fmt.Fprintf(out, "Style: %s\n\n%s\n\nImage prompts:\n", script.Style, script.Narration)
			for i, prompt := range script.VisualPrompts {
				fmt.Fprintf(out, "  %d. %s\n", i+1, prompt)
			}
			if script.UsedFallback {
				fmt.Fprintln(out, "(provider returned no scenes; fallback prompts used)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&scene, "scene", false, "Generate a single scene with one image prompt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var topic string
	var prompts []string
	var imageURL string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Voice and render an existing script",
		Long: "Render narrates the script read from --script (use - for stdin) and renders it over\n" +
			"either generated images (--prompt, repeatable) or one image (--image-url).",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd.InOrStdin(), scriptPath)
			if err != nil {
				return err
			}
			runner, _, closeFn, err := ctx.openRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			runCtx, cancel := interruptible(cmd.Context())
			defer cancel()
			result, err := runner.Render(runCtx, pipeline.RenderRequest{
				Topic:         topic,
				Script:        script,
				VisualPrompts: prompts,
				ImageURL:      imageURL,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, result, asJSON)
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the narration script (- for stdin)")
	cmd.Flags().StringVar(&topic, "topic", "", "Topic label recorded with the run")
	cmd.Flags().StringArrayVarP(&prompts, "prompt", "p", nil, "Image prompt (repeat for each scene)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Render over a single image fetched from this URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("script")
	cmd.MarkFlagsMutuallyExclusive("prompt", "image-url")
	cmd.MarkFlagsOneRequired("prompt", "image-url")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Generate, narrate and render a video for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, closeFn, err := ctx.openRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			runCtx, cancel := interruptible(cmd.Context())
			defer cancel()
			result, err := runner.Run(runCtx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResult(cmd, result, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func readScript(stdin io.Reader, path string) (string, error) {
	path = strings.TrimSpace(path)
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return "", errors.New("--script is required")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func printResult(cmd *cobra.Command, result pipeline.Result, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, map[string]any{
			"runKey":          result.RunKey,
			"outputPath":      result.OutputPath,
			"videoUrl":        result.VideoURL,
			"units":           result.Units,
			"skippedUnits":    result.SkippedUnits,
			"images":          result.Images,
			"omittedImages":   result.OmittedImages,
			"displayDuration": result.DisplayDuration,
			"elapsedSeconds":  result.Elapsed.Seconds(),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:       %s\n", result.RunKey)
	fmt.Fprintf(out, "Video:     %s\n", result.OutputPath)
	fmt.Fprintf(out, "URL:       %s\n", result.VideoURL)
	fmt.Fprintf(out, "Narration: %d chunks voiced, %d skipped, %.2fs\n", result.Units, result.SkippedUnits, result.DisplayDuration)
	fmt.Fprintf(out, "Images:    %d used, %d omitted\n", result.Images, result.OmittedImages)
	fmt.Fprintf(out, "Elapsed:   %s\n", result.Elapsed.Round(100*time.Millisecond))
	return nil
}
