package pipeline

import (
	"context"
	"math/rand/v2"

	"reelsmith/internal/chunker"
	"reelsmith/internal/composition"
	"reelsmith/internal/ledger"
	"reelsmith/internal/narration"
	"reelsmith/internal/render"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/speech"
	"reelsmith/internal/visuals"
)

// ScriptSource produces narration and image prompts for a topic.
type ScriptSource interface {
	Generate(ctx context.Context, topic string, rng *rand.Rand) (scriptgen.Script, error)
	GenerateScene(ctx context.Context, topic string, rng *rand.Rand) (scriptgen.Scene, error)
}

// Synthesizer turns one text unit into a measured clip inside dir.
type Synthesizer interface {
	Synthesize(ctx context.Context, dir string, unit chunker.TextUnit) (speech.AudioClip, error)
}

// TrackAssembler joins clips into the narration track.
type TrackAssembler interface {
	Assemble(ctx context.Context, dir string, clips []speech.AudioClip) (narration.Track, error)
}

// AssetFetcher downloads images into dir.
type AssetFetcher interface {
	FetchAll(ctx context.Context, dir string, prompts []string, rng *rand.Rand) (visuals.Result, error)
	FetchURL(ctx context.Context, dir, imageURL string) (visuals.Asset, error)
}

// Engine executes a composition plan.
type Engine interface {
	Render(ctx context.Context, plan composition.Plan) (render.Output, error)
}

// MusicPicker chooses a background track. An empty path means no music.
type MusicPicker interface {
	Pick(rng *rand.Rand) (string, error)
}

// RunLedger records run status. *ledger.Store satisfies it.
type RunLedger interface {
	Begin(ctx context.Context, runKey, topic string, status ledger.Status) (*ledger.Run, error)
	Transition(ctx context.Context, runKey string, status ledger.Status, detail string) error
	Finish(ctx context.Context, runKey, outputPath string) error
	Fail(ctx context.Context, runKey, reason, message string) error
}

type noopLedger struct{}

func (noopLedger) Begin(_ context.Context, runKey, topic string, status ledger.Status) (*ledger.Run, error) {
	return &ledger.Run{Key: runKey, Topic: topic, Status: status}, nil
}
func (noopLedger) Transition(context.Context, string, ledger.Status, string) error { return nil }
func (noopLedger) Finish(context.Context, string, string) error                    { return nil }
func (noopLedger) Fail(context.Context, string, string, string) error              { return nil }

type noMusic struct{}

func (noMusic) Pick(*rand.Rand) (string, error) { return "", nil }
