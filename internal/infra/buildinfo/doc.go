// Package buildinfo provides build information for goldtodo.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// Register publishes the same values as the goldtodo_build_info gauge.
package buildinfo
