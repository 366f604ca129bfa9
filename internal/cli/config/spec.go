// Package config defines the CLI configuration structure.
package config

import "time"

// CLIConfig is the configuration for goldtodo-cli.
type CLIConfig struct {
	// Server is the base URL used when --server is not given.
	Server string `yaml:"server"`

	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`

	// Timeout bounds each request to the server.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://localhost:3000",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
