// Package plates decides whether a requested attempt weight can be built
// exactly from a fixed bar and plate inventory loaded symmetrically.
//
// Validator.Evaluate is the gate used before an attempt weight is accepted;
// Validator.Plan produces the per-side loading sheet for the loaders.
package plates
