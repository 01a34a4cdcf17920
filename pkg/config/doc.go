// Package config defines the Arbiter configuration schema and loading
// pipeline.
//
// Configuration is read from a YAML file, filled in with defaults, overridden
// by ARBITER_* environment variables, and validated. Environment variables
// always take precedence over file values.
package config
