// Package workspace manages per-run temporary directories.
//
// Each run owns one directory under the temp root named by its run key.
// Nothing outside the run reads it, and it is removed when the run ends on
// either path. CleanStale sweeps directories left behind by crashed
// processes.
package workspace
