// Package version holds build-time metadata, overridden via -ldflags at
// release build time (e.g. -X github.com/fricosched/frico/pkg/version.Version=v1.2.3).
package version

var (
	// Version is the semantic version of this build.
	Version = "dev"
	// Commit is the VCS commit this build was produced from.
	Commit = "unknown"
	// BuildDate is when this build was produced, in RFC3339.
	BuildDate = "unknown"
)
