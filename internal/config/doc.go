// Package config defines the desk settings shared by every meet-desk command
// and provides helpers to load, validate and save them in YAML format.
//
// Values from the file can be overridden with MEET_DESK_* environment
// variables, which is how the desk is usually configured in containers.
package config
