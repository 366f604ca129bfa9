package storage

import (
	"log/slog"

	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/storage/memory"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// Store is a todo repository that owns resources.
type Store interface {
	service.TodoRepository
	Close() error
}

// Open creates the store selected by cfg.Engine. reg may be nil; when set,
// engines that expose storage metrics register them there.
func Open(cfg Config, reg *metric.Registry, logger *slog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Engine {
	case EngineBadger:
		return NewBadgerStore(cfg, reg, logger)
	default:
		logger.Info("using in-memory todo store")
		return memory.NewTodoStore(), nil
	}
}
