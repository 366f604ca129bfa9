// Package config provides the goldtodo-cli configuration.
//
// The file lives at ~/.goldtodo/cli.yaml and holds the default server,
// output format and request timeout:
//
//	server: http://localhost:3000
//	output: table
//	timeout: 30s
//
// Flags and GOLDTODO_* environment variables override the file.
package config
