// Package server runs the judging desk: the SQLite store, the desk service,
// the gRPC API for operator terminals, the HTTP display API, and the live
// sinks, until the context is canceled.
package server
