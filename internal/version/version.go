// Package version holds the vecsync build metadata injected via
// ldflags and reported in the startup log line.
package version

//nolint:revive // Set via ldflags when building the vecsync binary.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
