// Package notifications delivers run events via ntfy.
//
// The ntfy topic configured in config.toml receives a message when a run
// finishes or fails; without a topic the service degrades to a no-op.
// Pipeline code depends only on the Service interface.
package notifications
