package memory

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/pkg/cmap"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store closed")

// TodoStore keeps todos in a sharded concurrent map. IDs come from an
// in-process counter and are never reused.
type TodoStore struct {
	todos  *cmap.Map[int64, *domain.Todo]
	seq    atomic.Int64
	closed atomic.Bool
}

// NewTodoStore creates an empty store.
func NewTodoStore() *TodoStore {
	return &TodoStore{
		todos: cmap.New[int64, *domain.Todo](),
	}
}

// Create assigns the next ID and stores a copy of todo.
func (s *TodoStore) Create(_ context.Context, todo *domain.Todo) error {
	if s.closed.Load() {
		return ErrClosed
	}
	todo.ID = s.seq.Add(1)
	s.todos.Set(todo.ID, todo.Clone())
	return nil
}

// Get retrieves a todo by ID.
func (s *TodoStore) Get(_ context.Context, id int64) (*domain.Todo, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	todo, ok := s.todos.Get(id)
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	// Return a clone to prevent external modification
	return todo.Clone(), nil
}

// List returns all todos, newest first.
func (s *TodoStore) List(_ context.Context) ([]*domain.Todo, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	values := s.todos.Values()
	out := make([]*domain.Todo, len(values))
	for i, t := range values {
		out[i] = t.Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Update applies fn to a copy of the stored todo and saves it if fn succeeds.
func (s *TodoStore) Update(_ context.Context, id int64, fn func(*domain.Todo) error) (*domain.Todo, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	updated, ok, err := s.todos.UpdateIfPresent(id, func(cur *domain.Todo) (*domain.Todo, error) {
		next := cur.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		next.ID = cur.ID
		return next, nil
	})
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete removes a todo by ID.
func (s *TodoStore) Delete(_ context.Context, id int64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, ok := s.todos.Pop(id); !ok {
		return domain.ErrTodoNotFound
	}
	return nil
}

// Count returns the number of stored todos.
func (s *TodoStore) Count(_ context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	return s.todos.Count(), nil
}

// Ping reports ErrClosed after Close.
func (s *TodoStore) Ping(_ context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed and drops its contents.
func (s *TodoStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.todos.Clear()
	return nil
}
