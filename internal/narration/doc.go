// Package narration joins per-unit speech clips into the single narration
// track of a run.
//
// Clips are concatenated in unit order in their original, unscaled time. MP3
// streams are frame sequences, so byte-level concatenation yields a playable
// track; the playback-speed transform is applied once later by the
// composition engine.
package narration
