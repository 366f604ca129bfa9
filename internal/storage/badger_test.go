package storage

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/storage/memory"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func badgerConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Engine = EngineBadger
	cfg.DataDir = dir
	cfg.Badger.GCInterval = time.Hour // Disable auto GC for tests
	cfg.Badger.ValueLogFileSize = 1 << 20
	cfg.Badger.SyncWrites = false
	return cfg
}

func openBadger(t *testing.T, cfg Config, reg *metric.Registry) *BadgerStore {
	t.Helper()
	s, err := NewBadgerStore(cfg, reg, quietLogger())
	require.NoError(t, err)
	return s
}

func TestBadgerStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, badgerConfig(t.TempDir()), nil)
	defer s.Close()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list, "empty list encodes as []")

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, s.Create(ctx, domain.NewTodo(title, "", false)))
	}

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Title)
	assert.Equal(t, int64(2), got.ID)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	updated, err := s.Update(ctx, 1, func(t *domain.Todo) error {
		t.Completed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	require.NoError(t, s.Delete(ctx, 1))
	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 1), domain.ErrTodoNotFound)
	_, err = s.Update(ctx, 1, func(*domain.Todo) error { return nil })
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
}

func TestBadgerStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openBadger(t, badgerConfig(dir), nil)
	todo := domain.NewTodo("survives restart", "desc", false)
	require.NoError(t, s.Create(ctx, todo))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	s = openBadger(t, badgerConfig(dir), nil)
	defer s.Close()

	got, err := s.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "survives restart", got.Title)
	assert.Equal(t, "desc", got.Description)
	assert.True(t, todo.CreatedAt.Equal(got.CreatedAt))

	next := domain.NewTodo("after restart", "", false)
	require.NoError(t, s.Create(ctx, next))
	assert.Greater(t, next.ID, todo.ID, "ids keep increasing across restarts")
}

func TestBadgerStore_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	cfg := badgerConfig("")
	cfg.Badger.InMemory = true
	s := openBadger(t, cfg, nil)
	defer s.Close()

	todo := domain.NewTodo("flip", "", false)
	require.NoError(t, s.Create(ctx, todo))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, todo.ID, func(t *domain.Todo) error {
				t.Completed = !t.Completed
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestBadgerStore_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	s := openBadger(t, badgerConfig(t.TempDir()), reg)
	defer s.Close()

	out, err := reg.Metrics()
	require.NoError(t, err)
	assert.Contains(t, out, "# TYPE badger_lsm_size_bytes gauge")
	assert.Contains(t, out, "# TYPE badger_value_log_size_bytes gauge")
}

func TestBadgerStore_GCAndClosed(t *testing.T) {
	ctx := context.Background()
	s := openBadger(t, badgerConfig(t.TempDir()), nil)

	_, err := s.GC(ctx)
	require.NoError(t, err)
	assert.NotZero(t, s.Stats().LastGCTime)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		s, err := Open(DefaultConfig(), nil, quietLogger())
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &memory.TodoStore{}, s)
	})

	t.Run("badger", func(t *testing.T) {
		s, err := Open(badgerConfig(t.TempDir()), nil, quietLogger())
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &BadgerStore{}, s)
	})

	t.Run("badger without dir", func(t *testing.T) {
		_, err := Open(badgerConfig(""), nil, quietLogger())
		assert.Error(t, err)
	})

	t.Run("unknown engine", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Engine = "postgres"
		_, err := Open(cfg, nil, quietLogger())
		assert.Error(t, err)
	})
}
