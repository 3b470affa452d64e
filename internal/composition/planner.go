package composition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/narration"
	"reelsmith/internal/services"
	"reelsmith/internal/timeline"
	"reelsmith/internal/visuals"
)

// libass lays out SRT cues on a 288-line script canvas.
const assPlayResY = 288

// Style holds the fixed look and encoding parameters of a render.
type Style struct {
	Width        int
	Height       int
	FPS          int
	ZoomCeiling  float64
	ZoomStep     float64
	FontSize     int
	BorderWidth  int
	MarginBottom int
	MusicVolume  float64
	VideoCodec   string
	Preset       string
	Tune         string
	AudioCodec   string
	AudioBitrate string
	PixelFormat  string
}

// StyleFromConfig collects the style from the visuals and composition sections.
func StyleFromConfig(cfg *config.Config) Style {
	c := cfg.Composition
	return Style{
		Width:        cfg.Visuals.Width,
		Height:       cfg.Visuals.Height,
		FPS:          c.FPS,
		ZoomCeiling:  c.ZoomCeiling,
		ZoomStep:     c.ZoomStep,
		FontSize:     c.FontSize,
		BorderWidth:  c.BorderWidth,
		MarginBottom: c.MarginBottom,
		MusicVolume:  c.MusicVolume,
		VideoCodec:   c.VideoCodec,
		Preset:       c.Preset,
		Tune:         c.Tune,
		AudioCodec:   c.AudioCodec,
		AudioBitrate: c.AudioBitrate,
		PixelFormat:  c.PixelFormat,
	}
}

// Sources are the run artifacts a plan is built from.
type Sources struct {
	Assets       []visuals.Asset
	Narration    narration.Track
	Timeline     timeline.Timeline
	SubtitlePath string
	MusicPath    string
	OutputPath   string
}

// Build derives the render plan. Every asset gets an equal share of the total
// display duration.
func Build(src Sources, style Style) (Plan, error) {
	if len(src.Assets) == 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan", "no visual assets", nil)
	}
	for _, asset := range src.Assets {
		if strings.TrimSpace(asset.Path) == "" {
			return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan",
				fmt.Sprintf("asset %d has no file", asset.Index), nil)
		}
	}
	total := src.Timeline.TotalDisplayDuration
	if !(total > 0) || math.IsInf(total, 0) {
		return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan", "timeline has no duration", nil)
	}
	speed := src.Timeline.Speed
	if !(speed > 0) {
		return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan", "playback speed must be positive", nil)
	}
	if strings.TrimSpace(src.Narration.Path) == "" || strings.TrimSpace(src.SubtitlePath) == "" || strings.TrimSpace(src.OutputPath) == "" {
		return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan", "narration, subtitle and output paths are required", nil)
	}
	if style.FPS <= 0 || style.Width <= 0 || style.Height <= 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "planning", "build plan", "style needs positive fps and frame size", nil)
	}

	n := len(src.Assets)
	window := total / float64(n)
	frames := int(math.Ceil(window * float64(style.FPS)))

	plan := Plan{
		OutputPath:       src.OutputPath,
		ImageCount:       n,
		ImageWindow:      window,
		FramesPerImage:   frames,
		DisplayDuration:  total,
		RenderedDuration: src.Timeline.RenderedAudioDuration(),
		Speed:            speed,
		HasMusic:         strings.TrimSpace(src.MusicPath) != "",
		VideoOut:         "vout",
		AudioOut:         "aout",
	}

	size := fmt.Sprintf("%dx%d", style.Width, style.Height)
	concatInputs := make([]string, 0, n)
	for i, asset := range src.Assets {
		plan.Inputs = append(plan.Inputs, Input{Kind: InputImage, Path: asset.Path})
		label := "v" + strconv.Itoa(i)
		concatInputs = append(concatInputs, label)
		plan.Chains = append(plan.Chains, Chain{
			Inputs: []string{strconv.Itoa(i) + ":v"},
			Filters: []Filter{
				{Name: "scale", Params: []Param{
					{Key: "w", Value: strconv.Itoa(style.Width)},
					{Key: "h", Value: strconv.Itoa(style.Height)},
					{Key: "force_original_aspect_ratio", Value: "increase"},
				}},
				{Name: "crop", Params: []Param{
					{Key: "w", Value: strconv.Itoa(style.Width)},
					{Key: "h", Value: strconv.Itoa(style.Height)},
				}},
				{Name: "setsar", Params: []Param{{Value: "1"}}},
				{Name: "zoompan", Params: []Param{
					{Key: "z", Value: fmt.Sprintf("min(zoom+%s,%s)", formatFloat(style.ZoomStep), formatFloat(style.ZoomCeiling)), Quoted: true},
					{Key: "d", Value: strconv.Itoa(frames)},
					{Key: "x", Value: "iw/2-(iw/zoom/2)", Quoted: true},
					{Key: "y", Value: "ih/2-(ih/zoom/2)", Quoted: true},
					{Key: "s", Value: size},
					{Key: "fps", Value: strconv.Itoa(style.FPS)},
				}},
			},
			Outputs: []string{label},
		})
	}

	plan.Chains = append(plan.Chains, Chain{
		Inputs: concatInputs,
		Filters: []Filter{{Name: "concat", Params: []Param{
			{Key: "n", Value: strconv.Itoa(n)},
			{Key: "v", Value: "1"},
			{Key: "a", Value: "0"},
		}}},
		Outputs: []string{"vbase"},
	})
	// The last frame is held so a display timeline shorter than the narration
	// still covers it; -t trims the padding.
	plan.Chains = append(plan.Chains, Chain{
		Inputs: []string{"vbase"},
		Filters: []Filter{
			{Name: "tpad", Params: []Param{
				{Key: "stop_mode", Value: "clone"},
				{Key: "stop", Value: "-1"},
			}},
			subtitleFilter(src.SubtitlePath, style),
		},
		Outputs: []string{plan.VideoOut},
	})

	narrationIndex := len(plan.Inputs)
	plan.Inputs = append(plan.Inputs, Input{Kind: InputNarration, Path: src.Narration.Path})
	voice := Chain{
		Inputs:  []string{strconv.Itoa(narrationIndex) + ":a"},
		Filters: tempoFilters(speed),
		Outputs: []string{plan.AudioOut},
	}
	if !plan.HasMusic {
		plan.Chains = append(plan.Chains, voice)
	} else {
		voice.Outputs = []string{"voice"}
		musicIndex := len(plan.Inputs)
		plan.Inputs = append(plan.Inputs, Input{
			Kind:    InputMusic,
			Path:    src.MusicPath,
			Options: []string{"-stream_loop", "-1"},
		})
		plan.Chains = append(plan.Chains,
			voice,
			Chain{
				Inputs:  []string{strconv.Itoa(musicIndex) + ":a"},
				Filters: []Filter{{Name: "volume", Params: []Param{{Value: formatFloat(style.MusicVolume)}}}},
				Outputs: []string{"music"},
			},
			Chain{
				Inputs: []string{"voice", "music"},
				Filters: []Filter{{Name: "amix", Params: []Param{
					{Key: "inputs", Value: "2"},
					{Key: "duration", Value: "first"},
					{Key: "dropout_transition", Value: "2"},
					{Key: "normalize", Value: "0"},
				}}},
				Outputs: []string{plan.AudioOut},
			},
		)
	}

	plan.OutputOptions = append(outputOptions(style), "-t", formatMillis(plan.RenderedDuration))
	return plan, nil
}

func subtitleFilter(path string, style Style) Filter {
	forceStyle := strings.Join([]string{
		"FontSize=" + strconv.Itoa(scriptUnits(style.FontSize, style.Height)),
		"PrimaryColour=&H00FFFFFF",
		"OutlineColour=&H00000000",
		"BorderStyle=1",
		"Outline=" + strconv.Itoa(scriptUnits(style.BorderWidth, style.Height)),
		"Shadow=0",
		"Alignment=2",
		"MarginV=" + strconv.Itoa(scriptUnits(style.MarginBottom, style.Height)),
	}, ",")
	return Filter{Name: "subtitles", Params: []Param{
		{Key: "filename", Value: escapeFilterPath(path)},
		{Key: "force_style", Value: forceStyle, Quoted: true},
	}}
}

// scriptUnits converts a pixel size at the output height to libass script
// units, never rounding a non-zero size down to zero.
func scriptUnits(px, height int) int {
	if px <= 0 || height <= 0 {
		return 0
	}
	units := int(math.Round(float64(px) * assPlayResY / float64(height)))
	return max(units, 1)
}

// tempoFilters expresses speed as one or more atempo stages, each within the
// 0.5 to 2.0 range a single atempo instance accepts.
func tempoFilters(speed float64) []Filter {
	var factors []float64
	for speed > 2.0 {
		factors = append(factors, 2.0)
		speed /= 2.0
	}
	for speed < 0.5 {
		factors = append(factors, 0.5)
		speed /= 0.5
	}
	factors = append(factors, speed)

	filters := make([]Filter, 0, len(factors))
	for _, f := range factors {
		filters = append(filters, Filter{Name: "atempo", Params: []Param{{Value: formatFloat(f)}}})
	}
	return filters
}

func outputOptions(style Style) []string {
	var opts []string
	add := func(flag, value string) {
		if value = strings.TrimSpace(value); value != "" {
			opts = append(opts, flag, value)
		}
	}
	add("-c:v", style.VideoCodec)
	add("-preset", style.Preset)
	add("-tune", style.Tune)
	add("-c:a", style.AudioCodec)
	add("-b:a", style.AudioBitrate)
	add("-pix_fmt", style.PixelFormat)
	add("-r", strconv.Itoa(style.FPS))
	return opts
}

// formatMillis renders seconds rounded to the millisecond.
func formatMillis(seconds float64) string {
	return formatFloat(math.Round(seconds*1000) / 1000)
}
