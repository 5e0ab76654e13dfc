// Package version exposes the build metadata of meet-desk.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
