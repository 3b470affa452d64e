package composition_test

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"reelsmith/internal/chunker"
	"reelsmith/internal/composition"
	"reelsmith/internal/config"
	"reelsmith/internal/narration"
	"reelsmith/internal/services"
	"reelsmith/internal/timeline"
	"reelsmith/internal/visuals"
)

func defaultStyle() composition.Style {
	cfg := config.Default()
	return composition.StyleFromConfig(&cfg)
}

func assets(n int) []visuals.Asset {
	out := make([]visuals.Asset, n)
	for i := range out {
		out[i] = visuals.Asset{Index: i, Path: fmt.Sprintf("/tmp/run/%s", visuals.AssetFileName(i))}
	}
	return out
}

func sources(n int, total, speed float64, music string) composition.Sources {
	return composition.Sources{
		Assets:       assets(n),
		Narration:    narration.Track{Path: "/tmp/run/narration.mp3"},
		Timeline:     timeline.Timeline{TotalDisplayDuration: total, Speed: speed, Correction: 1},
		SubtitlePath: "/tmp/run/subtitles.srt",
		MusicPath:    music,
		OutputPath:   "/out/video_x.mp4",
	}
}

func TestBuildFilterGraphWithMusic(t *testing.T) {
	plan, err := composition.Build(sources(2, 10, 1.5, "/music/bed.mp3"), defaultStyle())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	image := func(i int) string {
		return fmt.Sprintf("[%d:v]scale=w=1080:h=1920:force_original_aspect_ratio=increase,crop=w=1080:h=1920,setsar=1,"+
			"zoompan=z='min(zoom+0.0005,1.2)':d=150:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=1080x1920:fps=30[v%d]", i, i)
	}
	want := strings.Join([]string{
		image(0),
		image(1),
		"[v0][v1]concat=n=2:v=1:a=0[vbase]",
		"[vbase]tpad=stop_mode=clone:stop=-1,subtitles=filename=/tmp/run/subtitles.srt:force_style='FontSize=9,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,BorderStyle=1,Outline=1,Shadow=0,Alignment=2,MarginV=18'[vout]",
		"[2:a]atempo=1.5[voice]",
		"[3:a]volume=0.3[music]",
		"[voice][music]amix=inputs=2:duration=first:dropout_transition=2:normalize=0[aout]",
	}, ";")
	if got := plan.FilterComplex(); got != want {
		t.Fatalf("filter graph mismatch\n got: %s\nwant: %s", got, want)
	}
	if plan.ImageWindow != 5 || plan.FramesPerImage != 150 || !plan.HasMusic {
		t.Fatalf("unexpected plan metadata %+v", plan)
	}
}

func TestOutputFollowsRenderedNarration(t *testing.T) {
	units := []chunker.TextUnit{{Index: 1, Text: "a."}, {Index: 2, Text: "b."}, {Index: 3, Text: "c."}}
	raw := []float64{3.0, 4.5, 1.5}
	for _, correction := range []float64{0.98, 1, 1.1} {
		t.Run(fmt.Sprintf("correction=%v", correction), func(t *testing.T) {
			tl, err := timeline.Build(units, raw, 1.5, correction)
			if err != nil {
				t.Fatal(err)
			}
			src := sources(8, 0, 1.5, "/music/short.mp3")
			src.Timeline = tl

			plan, err := composition.Build(src, defaultStyle())
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(plan.RenderedDuration-6.0) > 1e-9 {
				t.Fatalf("rendered duration = %v, want 6", plan.RenderedDuration)
			}
			args := plan.Args()
			i := slices.Index(args, "-t")
			if i < 0 || i+1 >= len(args) || args[i+1] != "6" {
				t.Fatalf("expected -t 6 in %v", args)
			}
			if args[len(args)-1] != "/out/video_x.mp4" {
				t.Fatalf("output path must stay last: %v", args)
			}
			graph := plan.FilterComplex()
			for _, want := range []string{
				"[8:a]atempo=1.5[voice]",
				"[voice][music]amix=inputs=2:duration=first:",
				"tpad=stop_mode=clone:stop=-1",
			} {
				if !strings.Contains(graph, want) {
					t.Fatalf("expected %q in %s", want, graph)
				}
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	plan, err := composition.Build(sources(1, 4, 1.2, "/music/bed.mp3"), defaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	args := plan.Args()
	wantPrefix := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-i", "/tmp/run/image_00.jpg",
		"-i", "/tmp/run/narration.mp3",
		"-stream_loop", "-1", "-i", "/music/bed.mp3",
		"-filter_complex"}
	if !slices.Equal(args[:len(wantPrefix)], wantPrefix) {
		t.Fatalf("unexpected input args %v", args[:len(wantPrefix)])
	}
	wantTail := []string{"-map", "[vout]", "-map", "[aout]",
		"-c:v", "libx264", "-preset", "ultrafast", "-tune", "stillimage",
		"-c:a", "aac", "-b:a", "128k", "-pix_fmt", "yuv420p", "-r", "30",
		"-t", "4", "/out/video_x.mp4"}
	if !slices.Equal(args[len(args)-len(wantTail):], wantTail) {
		t.Fatalf("unexpected output args %v", args[len(args)-len(wantTail):])
	}
}

func TestBuildWithoutMusicMapsNarrationDirectly(t *testing.T) {
	plan, err := composition.Build(sources(3, 9, 1.2, ""), defaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	graph := plan.FilterComplex()
	if !strings.HasSuffix(graph, "[3:a]atempo=1.2[aout]") {
		t.Fatalf("expected narration mapped straight to aout: %s", graph)
	}
	if strings.Contains(graph, "amix") || strings.Contains(strings.Join(plan.Args(), " "), "stream_loop") {
		t.Fatalf("unexpected music handling: %s", graph)
	}
}

func TestBuildWindowForSurvivingAssets(t *testing.T) {
	units := []float64{3.0, 4.5, 1.5}
	tl := timeline.Timeline{Speed: 1.5, Correction: 0.98}
	for _, raw := range units {
		tl.TotalDisplayDuration += timeline.DisplayDuration(raw, 1.5, 0.98)
	}
	src := sources(6, 0, 1.5, "")
	src.Timeline = tl

	plan, err := composition.Build(src, defaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if plan.ImageCount != 6 {
		t.Fatalf("expected 6 images, got %d", plan.ImageCount)
	}
	if math.Abs(plan.ImageWindow-5.88/6) > 1e-9 {
		t.Fatalf("unexpected window %v", plan.ImageWindow)
	}
	if math.Abs(plan.ImageWindow*float64(plan.ImageCount)-plan.DisplayDuration) > 1e-9 {
		t.Fatalf("windows do not sum to display duration")
	}
	if got := len(plan.ImagePaths()); got != 6 {
		t.Fatalf("expected 6 image inputs, got %d", got)
	}
}

func TestTempoChainsOutOfRangeSpeeds(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1.2, "atempo=1.2[aout]"},
		{3, "atempo=2,atempo=1.5[aout]"},
		{0.25, "atempo=0.5,atempo=0.5[aout]"},
	}
	for _, tc := range tests {
		plan, err := composition.Build(sources(1, 5, tc.speed, ""), defaultStyle())
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(plan.FilterComplex(), tc.want) {
			t.Fatalf("speed %v: got %s", tc.speed, plan.FilterComplex())
		}
	}
}

func TestSubtitlePathEscaping(t *testing.T) {
	src := sources(1, 5, 1, "")
	src.SubtitlePath = `/tmp/it's:here/subs.srt`
	plan, err := composition.Build(src, defaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	want := `filename=/tmp/it\\\'s\\:here/subs.srt:`
	if !strings.Contains(plan.FilterComplex(), want) {
		t.Fatalf("expected escaped path %s in %s", want, plan.FilterComplex())
	}
}

func TestBuildValidation(t *testing.T) {
	cases := map[string]func(*composition.Sources){
		"no assets":     func(s *composition.Sources) { s.Assets = nil },
		"zero duration": func(s *composition.Sources) { s.Timeline.TotalDisplayDuration = 0 },
		"zero speed":    func(s *composition.Sources) { s.Timeline.Speed = 0 },
		"no subtitles":  func(s *composition.Sources) { s.SubtitlePath = "" },
		"empty asset":   func(s *composition.Sources) { s.Assets[0].Path = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			src := sources(2, 10, 1.2, "")
			mutate(&src)
			if _, err := composition.Build(src, defaultStyle()); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
