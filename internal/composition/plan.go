package composition

import (
	"strconv"
	"strings"
)

// InputKind identifies what an input stream carries.
type InputKind string

const (
	InputImage     InputKind = "image"
	InputNarration InputKind = "narration"
	InputMusic     InputKind = "music"
)

// Input is one ffmpeg input with the options that precede its -i.
type Input struct {
	Kind    InputKind
	Path    string
	Options []string
}

// Param is a single filter option. Quoted values are wrapped in single quotes.
type Param struct {
	Key    string
	Value  string
	Quoted bool
}

// Filter is one filter with its options in serialization order.
type Filter struct {
	Name   string
	Params []Param
}

// String renders the filter as name=key=value:key=value.
func (f Filter) String() string {
	if len(f.Params) == 0 {
		return f.Name
	}
	parts := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		value := p.Value
		if p.Quoted {
			value = "'" + value + "'"
		}
		if p.Key == "" {
			parts = append(parts, value)
			continue
		}
		parts = append(parts, p.Key+"="+value)
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Chain is a linear run of filters between labelled pads.
type Chain struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

// String renders the chain as [in]f1,f2[out].
func (c Chain) String() string {
	var b strings.Builder
	for _, label := range c.Inputs {
		b.WriteString("[" + label + "]")
	}
	for i, f := range c.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, label := range c.Outputs {
		b.WriteString("[" + label + "]")
	}
	return b.String()
}

// Plan is the complete description of one render.
type Plan struct {
	Inputs        []Input
	Chains        []Chain
	VideoOut      string
	AudioOut      string
	OutputOptions []string
	OutputPath    string

	ImageCount       int
	ImageWindow      float64
	FramesPerImage   int
	DisplayDuration  float64
	RenderedDuration float64
	Speed            float64
	HasMusic         bool
}

// FilterComplex serializes the filter graph.
func (p Plan) FilterComplex() string {
	chains := make([]string, 0, len(p.Chains))
	for _, c := range p.Chains {
		chains = append(chains, c.String())
	}
	return strings.Join(chains, ";")
}

// Args returns the full ffmpeg argument list, excluding the binary.
func (p Plan) Args() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range p.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	args = append(args, "-filter_complex", p.FilterComplex())
	args = append(args, "-map", "["+p.VideoOut+"]", "-map", "["+p.AudioOut+"]")
	args = append(args, p.OutputOptions...)
	args = append(args, p.OutputPath)
	return args
}

// ImagePaths lists the image inputs in concatenation order.
func (p Plan) ImagePaths() []string {
	var paths []string
	for _, in := range p.Inputs {
		if in.Kind == InputImage {
			paths = append(paths, in.Path)
		}
	}
	return paths
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeFilterPath escapes a file path for use as a filter option value inside
// a filtergraph: once for the option parser and once for the graph parser.
func escapeFilterPath(path string) string {
	option := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(path)
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`).Replace(option)
}
