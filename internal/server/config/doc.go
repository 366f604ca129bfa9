// Package config provides server configuration for goldtodo.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (address format, TLS pairs, engine, paths)
//   - sanitize.go: Log sanitization (hide credentials)
//   - convert.go: Conversion to storage, logger and remote-write settings
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and GOLDTODO_* environment variables.
package config
