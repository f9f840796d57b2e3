// Package config loads and validates the RouteNet service configuration
// from YAML, applies environment overrides, and supports hot-reloading the
// synonym table from a watched file.
package config
