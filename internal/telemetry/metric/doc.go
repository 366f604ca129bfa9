// Package metric provides the metric registry and request instrumentation
// for goldtodo.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry over a private prometheus.Registry
//   - definition.go: metric definitions and validation
//   - golden.go: traffic, error, latency and saturation families
//   - instrumentor.go: request lifecycle bookkeeping
//   - query.go: storage latency and in-flight tracking
//   - collector.go: scrape-time gauges computed from application state
//   - handler.go: /metrics exposition in the Prometheus text format
//   - remotewrite.go: optional push to a remote-write endpoint
//
// Families with labels create series lazily on first use. Families without
// labels are exposed at zero from registration on.
package metric
