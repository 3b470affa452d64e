// Package language normalizes narration language settings into the short
// tags speech providers accept, and names them for display.
package language
