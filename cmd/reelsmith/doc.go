// Package main hosts the reelsmith CLI entrypoint and command graph.
//
// The Cobra command tree exposes the HTTP server, one-shot generate, render
// and run commands that drive the pipeline in-process, run history from the
// ledger, workspace maintenance, and configuration scaffolding. Config
// resolution and logger setup live here so subcommands stay declarative.
package main
