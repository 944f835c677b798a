// Package version holds build metadata stamped in via ldflags.
package version

var (
	// Version is the release version, "0.0.0" for local builds.
	Version = "0.0.0"

	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"

	// BuildDate is when the binary was built.
	BuildDate = "unknown"
)
