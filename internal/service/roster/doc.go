// Package roster imports a contest from a YAML roster file: the contest,
// its competitors, their registrations and all nine attempts per lifter,
// with declared openers checked against the platform plates.
package roster
