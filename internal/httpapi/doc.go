// Package httpapi serves the generate and render endpoints, run history,
// health, and the rendered videos under /output/.
//
// A flock on the configured lock path keeps a second server from sharing the
// same temp and output directories. Failures are reported as {"error": msg}:
// malformed requests get 400 and pipeline failures get 500 with the failure
// message unchanged.
package httpapi
