// Package desk is the judging desk: it accepts declared weights and judging
// results, keeps the current attempt, recomputes the rising-bar queue after
// every change, and publishes the resulting state to live displays.
package desk
