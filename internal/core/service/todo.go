package service

import (
	"context"
	"log/slog"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// TodoTable is the table label on storage metrics.
const TodoTable = "todo"

// TodoRepository defines the storage interface for todos.
type TodoRepository interface {
	// Create assigns the next ID to todo and stores it.
	Create(ctx context.Context, todo *domain.Todo) error

	// Get retrieves a todo by ID.
	// Returns domain.ErrTodoNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*domain.Todo, error)

	// List returns all todos, newest first.
	List(ctx context.Context) ([]*domain.Todo, error)

	// Update atomically applies fn to the stored todo and saves the result.
	// fn may return an error to abort the update.
	Update(ctx context.Context, id int64, fn func(*domain.Todo) error) (*domain.Todo, error)

	// Delete removes a todo by ID.
	// Returns domain.ErrTodoNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored todos.
	Count(ctx context.Context) (int, error)

	// Ping checks that the storage backend is reachable.
	Ping(ctx context.Context) error
}

// CreateTodoRequest contains parameters for todo creation.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// TodoService handles todo CRUD operations. Every repository call is timed
// into the storage metrics when signals are configured.
type TodoService struct {
	repo    TodoRepository
	signals *metric.QuerySignals
	logger  *slog.Logger
}

// NewTodoService creates a new TodoService. signals may be nil.
func NewTodoService(repo TodoRepository, signals *metric.QuerySignals, logger *slog.Logger) *TodoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoService{
		repo:    repo,
		signals: signals,
		logger:  logger,
	}
}

// track starts timing a repository call.
func (s *TodoService) track(operation string) func() {
	if s.signals == nil {
		return func() {}
	}
	return s.signals.Track(operation, TodoTable)
}

// Create validates and stores a new todo.
func (s *TodoService) Create(ctx context.Context, req *CreateTodoRequest) (*domain.Todo, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("request body is required")
	}

	var desc string
	if req.Description != nil {
		desc = *req.Description
	}
	completed := req.Completed != nil && *req.Completed

	todo := domain.NewTodo(req.Title, desc, completed)
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	done := s.track("create")
	err := s.repo.Create(ctx, todo)
	done()
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Debug("todo created", "id", todo.ID)
	return todo, nil
}

// List returns all todos, newest first.
func (s *TodoService) List(ctx context.Context) ([]*domain.Todo, error) {
	defer s.track("findMany")()

	todos, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return todos, nil
}

// Get retrieves a todo by ID.
func (s *TodoService) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	defer s.track("findUnique")()

	todo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return todo, nil
}

// Update applies a partial update. An empty patch returns the todo unchanged.
func (s *TodoService) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	defer s.track("update")()

	todo, err := s.repo.Update(ctx, id, func(t *domain.Todo) error {
		patch.Apply(t)
		return t.Validate()
	})
	if err != nil {
		return nil, storageError(err)
	}
	return todo, nil
}

// Toggle flips the completed flag.
func (s *TodoService) Toggle(ctx context.Context, id int64) (*domain.Todo, error) {
	defer s.track("update")()

	todo, err := s.repo.Update(ctx, id, func(t *domain.Todo) error {
		completed := !t.Completed
		domain.TodoPatch{Completed: &completed}.Apply(t)
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return todo, nil
}

// Delete removes a todo.
func (s *TodoService) Delete(ctx context.Context, id int64) error {
	defer s.track("delete")()

	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	s.logger.Debug("todo deleted", "id", id)
	return nil
}

// Ping checks the storage backend.
func (s *TodoService) Ping(ctx context.Context) error {
	defer s.track("ping")()

	if err := s.repo.Ping(ctx); err != nil {
		return domain.ErrServiceUnavailable.WithCause(err)
	}
	return nil
}

// StateCounts reports how many todos are open and completed.
// It implements metric.StateSource and runs during scrapes, so it reads the
// repository without touching the storage metrics.
func (s *TodoService) StateCounts(ctx context.Context) (map[string]float64, error) {
	todos, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	counts := map[string]float64{
		domain.StateOpen:      0,
		domain.StateCompleted: 0,
	}
	for _, t := range todos {
		counts[t.State()]++
	}
	return counts, nil
}

// storageError passes domain errors through and wraps everything else.
func storageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
