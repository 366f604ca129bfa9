// Package logger provides structured logging for goldtodo.
//
// It configures log/slog with:
//
//   - JSON (default) or text output
//   - a process-wide level that can be changed at runtime (SetLevel),
//     which the config watcher uses for hot reload
//   - redaction of credentials and sensitive attribute keys
//   - request ID propagation through the context (WithRequestID, L)
package logger
