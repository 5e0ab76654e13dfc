// Package contest persists contests, registrations and attempts in SQLite.
//
// The Store implements Repository, which the desk service depends on. Schema
// changes live in embedded migrations applied once per database file.
package contest
