package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/storage/memory"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

func newTestService(t *testing.T) (*TodoService, *metric.Registry) {
	t.Helper()
	reg := metric.NewRegistry()
	signals, err := metric.NewQuerySignals(reg, nil)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTodoService(memory.NewTodoStore(), signals, logger), reg
}

func ptr[T any](v T) *T { return &v }

func TestTodoService_Create(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, &CreateTodoRequest{Title: "Set up Prometheus", Description: ptr("scrape it")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), todo.ID)
	assert.Equal(t, "scrape it", todo.Description)
	assert.False(t, todo.Completed)

	done, err := svc.Create(ctx, &CreateTodoRequest{Title: "done", Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, done.Completed)
}

func TestTodoService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateTodoRequest{Title: ""})
	assert.ErrorIs(t, err, domain.ErrTodoValidation)

	_, err = svc.Create(ctx, &CreateTodoRequest{Title: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, domain.ErrTodoValidation)

	_, err = svc.Create(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected todos are not stored")
}

func TestTodoService_UpdateToggleDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, &CreateTodoRequest{Title: "task"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, todo.ID, domain.TodoPatch{Title: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	_, err = svc.Update(ctx, todo.ID, domain.TodoPatch{Title: ptr("")})
	assert.ErrorIs(t, err, domain.ErrTodoValidation)
	got, err := svc.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title, "invalid patch leaves todo untouched")

	unchanged, err := svc.Update(ctx, todo.ID, domain.TodoPatch{})
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt, unchanged.UpdatedAt)

	toggled, err := svc.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	toggled, err = svc.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	require.NoError(t, svc.Delete(ctx, todo.ID))
	_, err = svc.Get(ctx, todo.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, todo.ID), domain.ErrTodoNotFound)
	_, err = svc.Toggle(ctx, todo.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
}

func TestTodoService_Seed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding a non-empty store is a no-op")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Write Documentation", list[0].Title)
	assert.True(t, list[0].Completed)

	counts, err := svc.StateCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{domain.StateOpen: 4, domain.StateCompleted: 1}, counts)
}

func TestTodoService_StorageMetrics(t *testing.T) {
	svc, reg := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateTodoRequest{Title: "a"})
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	_, _ = svc.Get(ctx, 99)

	out, err := reg.Metrics()
	require.NoError(t, err)
	assert.Contains(t, out, `db_query_duration_seconds_count{operation="create",table="todo"} 1`)
	assert.Contains(t, out, `db_query_duration_seconds_count{operation="findMany",table="todo"} 1`)
	assert.Contains(t, out, `db_query_duration_seconds_count{operation="findUnique",table="todo"} 1`)
	assert.Contains(t, out, "db_pool_active_connections 0\n")
}

func TestTodoService_NilSignals(t *testing.T) {
	svc := NewTodoService(memory.NewTodoStore(), nil, nil)
	_, err := svc.Create(context.Background(), &CreateTodoRequest{Title: "a"})
	assert.NoError(t, err)
}

type brokenRepo struct{ TodoRepository }

var errDisk = errors.New("disk on fire")

func (brokenRepo) List(context.Context) ([]*domain.Todo, error) { return nil, errDisk }
func (brokenRepo) Ping(context.Context) error                   { return errDisk }

func TestTodoService_StorageFailures(t *testing.T) {
	svc := NewTodoService(brokenRepo{}, nil, nil)
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageError)
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, 500, metric.StatusFromFailure(err))

	err = svc.Ping(ctx)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, 503, metric.StatusFromFailure(err))

	_, err = svc.StateCounts(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageError)
}

func TestTodoService_StateCollector(t *testing.T) {
	svc, reg := newTestService(t)
	require.NoError(t, reg.RegisterCollector(
		metric.NewStateCollector("todo_items", "Number of todo items by state", "state", svc, nil)))

	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	expected := `
# HELP todo_items Number of todo items by state
# TYPE todo_items gauge
todo_items{state="completed"} 1
todo_items{state="open"} 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "todo_items"))
}

func TestTodoService_ScrapeDoesNotMeterStorage(t *testing.T) {
	svc, reg := newTestService(t)
	require.NoError(t, reg.RegisterCollector(
		metric.NewStateCollector("todo_items", "Number of todo items by state", "state", svc, nil)))

	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	first, err := reg.Metrics()
	require.NoError(t, err)
	second, err := reg.Metrics()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, second, `operation="findMany"`)
	assert.Contains(t, second, "db_pool_active_connections 0\n")
}
