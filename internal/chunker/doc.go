// Package chunker splits narration text into bounded, sentence-respecting
// units, each small enough for one speech synthesis request.
package chunker
