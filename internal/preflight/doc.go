// Package preflight provides readiness checks for external services
// and filesystem paths that reelsmith depends on.
//
// These checks run in two contexts:
//   - The HTTP server reports them from GET /api/health.
//   - The CLI "reelsmith doctor" command renders them as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
