// Package httpserver provides the HTTP/HTTPS server for goldtodo.
//
// This package implements the external API using stdlib net/http:
//
//   - Todo endpoints: /todos, /todos/{id}, /todos/{id}/toggle
//   - Health endpoints: /health, /health/live, /health/ready
//   - Metrics endpoint: /metrics (Prometheus text format)
//
// Features:
//
//   - Golden signal instrumentation of every request (Instrument)
//   - Middleware chain: RequestID, Recover, CORS, RateLimit, Audit
//   - TLS support with automatic certificate reload
//   - Graceful shutdown with configurable timeout
package httpserver
