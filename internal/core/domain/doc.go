// Package domain defines the core domain models for goldtodo.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Todo: the task entity and its partial update
//   - Errors: coded domain errors that carry their HTTP status
package domain
