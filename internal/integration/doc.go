// Package integration runs the desk end to end: SQLite store, gRPC API,
// display HTTP API and live feed, driven through the real client.
package integration
