// Package service provides domain services for goldtodo.
//
// Domain services contain business logic and orchestrate operations on
// domain models. They define interfaces for storage dependencies, so the
// memory and badger stores can be swapped without touching callers.
//
//   - TodoService: todo CRUD, toggling, seeding, and the state breakdown
//     behind the todo_items gauge
package service
