// Package config loads and validates YAML configuration.
//
// Files may reference environment variables as ${VAR}; they are expanded
// before parsing. Optional fields fall back to the defaults in defaults.go.
package config
