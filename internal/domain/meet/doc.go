// Package meet contains the core domain types of a meet day: attempts,
// registrations, competitors and the phase the platform is lifting through.
//
// It also holds the current-attempt projection used by every live display
// and the ordered-fallback Resolution helper shared by the scheduler.
package meet
