// Package command provides the goldtodo-cli command tree.
//
// Commands are built on urfave/cli/v2:
//
//   - root.go: application, global flags and shared helpers
//   - todo.go: todo list/get/add/update/toggle/delete
//   - metrics.go: fetch and filter the server's metrics exposition
//   - health.go: health, liveness and readiness probes
//   - version is defined next to health, both read /health
//   - config.go: the local CLI configuration file
//   - shell.go: interactive shell over the same command tree
//
// Every command writes to the application's Writer so output can be
// captured, and renders through the output package in the format chosen
// with --output.
package command
