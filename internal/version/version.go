// Package version holds build-time version information, populated via
// -ldflags at release build time.
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
