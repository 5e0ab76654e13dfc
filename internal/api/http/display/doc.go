// Package display serves the read-only HTTP API used by platform displays
// and warm-up room screens: weight checks, loading sheets, the upcoming
// queue, the attempt on the platform, and a server-sent events feed.
package display
