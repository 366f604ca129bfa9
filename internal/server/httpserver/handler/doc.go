// Package handler provides HTTP request handlers for goldtodo.
//
// This package contains handlers for all HTTP endpoints:
//
//   - todo.go: Todo CRUD operations under /todos
//   - health.go: Health, liveness and readiness checks
//   - handler.go: Routing, the JSON envelope and error mapping
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call domain service
//   - Format and return response
//   - Handle errors with appropriate HTTP status codes
//
// Domain errors map to HTTP status through their code (GT-TODO-4040 is 404,
// GT-ARG-* is 400). Any other error is logged and reported as GT-SYS-5000.
package handler
