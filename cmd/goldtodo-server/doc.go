// Package main provides the entry point for goldtodo-server.
//
// The server exposes the todo REST API together with:
//
//   - A Prometheus exposition endpoint for the golden signals
//   - Liveness and readiness probes under /health
//   - Optional remote-write pushes to a Prometheus-compatible backend
//
// Usage:
//
//	goldtodo-server [flags]
//	goldtodo-server --config /etc/goldtodo/server.yaml
//
// Every configuration key can also be set through a GOLDTODO_ environment
// variable, e.g. GOLDTODO_SERVER_HTTP_ADDR=0.0.0.0:3000.
package main
