package version

import (
	"fmt"
	"runtime"
)

//nolint:gochecknoglobals // Injected via -ldflags "-X".
var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Info is the build metadata as structured fields, handy for logs.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
}

// Current returns the metadata of the running binary.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and Go version.
func Full() string {
	info := Current()

	return fmt.Sprintf("meet-desk %s (commit %s, built %s, %s)",
		info.Version, info.Commit, info.BuildTime, info.GoVersion)
}

// KV returns the metadata as logger key-value pairs.
func KV() []any {
	info := Current()

	return []any{
		"version", info.Version,
		"commit", info.Commit,
		"build_time", info.BuildTime,
		"go_version", info.GoVersion,
	}
}
