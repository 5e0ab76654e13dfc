// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client for the desk service with call
// timeouts, and detects the operator (hostname/username) that every
// mutating call carries for the desk's audit log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
