// Package textutil holds small text helpers shared by the CLI and
// notifications: display casing and rune-safe truncation.
package textutil
