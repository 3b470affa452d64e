// Package composition turns a run's assets, narration and timeline into a
// declarative render plan for ffmpeg.
//
// The plan is a typed value: inputs, labelled filter chains and output
// options. It is serialized to ffmpeg arguments only by Args and
// FilterComplex, so planning never touches the engine. Image windows are an
// equal share of the total display duration; narration speed is applied here
// with atempo and background music, when present, loops under the narration
// and is truncated to it.
package composition
