package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// Common errors
var (
	ErrClosed = errors.New("badger store closed")
)

// Key layout.
var (
	todoPrefix = []byte("todo/")
	seqKey     = []byte("seq/todo")
)

const (
	seqBandwidth     = 100
	maxUpdateRetries = 64
)

// BadgerStore implements the todo repository on Badger v3.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	cfg    BadgerConfig
	logger *slog.Logger

	// Metrics
	reg          *metric.Registry
	lsmSize      *metric.Handle
	valueLogSize *metric.Handle
	lastGCTime   atomic.Int64 // Unix milliseconds

	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewBadgerStore opens (or creates) the database at cfg.DataDir.
func NewBadgerStore(cfg Config, reg *metric.Registry, logger *slog.Logger) (*BadgerStore, error) {
	bcfg := cfg.Badger.withDefaults()
	if cfg.DataDir == "" && !bcfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.DataDir)
	if bcfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = bcfg.CacheSize
	opts.ValueLogFileSize = bcfg.ValueLogFileSize
	opts.SyncWrites = bcfg.SyncWrites
	opts.DetectConflicts = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	seq, err := db.GetSequence(seqKey, seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badger: open sequence: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		seq:    seq,
		cfg:    bcfg,
		logger: logger,
		reg:    reg,
		stopCh: make(chan struct{}),
	}

	if reg != nil {
		if err := s.registerMetrics(); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.wg.Add(1)
	go s.gcLoop()

	logger.Info("badger store started",
		"dir", cfg.DataDir,
		"in_memory", bcfg.InMemory,
		"gc_interval", bcfg.GCInterval)

	return s, nil
}

func todoKey(id int64) []byte {
	key := make([]byte, len(todoPrefix)+8)
	copy(key, todoPrefix)
	binary.BigEndian.PutUint64(key[len(todoPrefix):], uint64(id))
	return key
}

func (s *BadgerStore) check() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Create assigns the next sequence value as ID and stores todo.
func (s *BadgerStore) Create(ctx context.Context, todo *domain.Todo) error {
	if err := s.check(); err != nil {
		return err
	}
	next, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("badger: next id: %w", err)
	}
	// Sequences start at 0; todo IDs start at 1.
	todo.ID = int64(next) + 1

	value, err := json.Marshal(todo)
	if err != nil {
		return fmt.Errorf("badger: encode todo: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(todoKey(todo.ID), value)
	})
}

// Get retrieves a todo by ID.
func (s *BadgerStore) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var todo *domain.Todo
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		todo, err = getTodo(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// List returns all todos, newest first.
func (s *BadgerStore) List(ctx context.Context) ([]*domain.Todo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var todos []*domain.Todo
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = todoPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key under the prefix.
		seek := append(append([]byte{}, todoPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(todoPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t domain.Todo
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return fmt.Errorf("badger: decode %x: %w", it.Item().Key(), err)
			}
			todos = append(todos, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}
	return todos, nil
}

// Update applies fn inside a read-write transaction. Conflicting concurrent
// updates are retried.
func (s *BadgerStore) Update(ctx context.Context, id int64, fn func(*domain.Todo) error) (*domain.Todo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var updated *domain.Todo
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			todo, err := getTodo(txn, id)
			if err != nil {
				return err
			}
			if err := fn(todo); err != nil {
				return err
			}
			todo.ID = id
			value, err := json.Marshal(todo)
			if err != nil {
				return fmt.Errorf("badger: encode todo: %w", err)
			}
			updated = todo
			return txn.Set(todoKey(id), value)
		})
		if errors.Is(err, badger.ErrConflict) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("badger: update todo %d: %w", id, badger.ErrConflict)
}

// Delete removes a todo by ID.
func (s *BadgerStore) Delete(ctx context.Context, id int64) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(todoKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrTodoNotFound
			}
			return err
		}
		return txn.Delete(todoKey(id))
	})
}

// Count returns the number of stored todos.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = todoPrefix
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

func getTodo(txn *badger.Txn, id int64) (*domain.Todo, error) {
	item, err := txn.Get(todoKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, err
	}
	var t domain.Todo
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &t)
	}); err != nil {
		return nil, fmt.Errorf("badger: decode todo %d: %w", id, err)
	}
	return &t, nil
}

// GC runs value-log garbage collection until nothing is left to rewrite.
// Returns the number of files rewritten.
func (s *BadgerStore) GC(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if s.cfg.InMemory {
		return 0, nil
	}
	startTime := time.Now()

	rewritten := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.logger.Debug("gc completed",
		"files_rewritten", rewritten,
		"elapsed", time.Since(startTime))

	return rewritten, nil
}

// Stats describes the on-disk footprint.
type Stats struct {
	LSMSize      int64
	ValueLogSize int64
	LastGCTime   int64 // Unix milliseconds, 0 if GC never ran
}

// Stats returns storage statistics.
func (s *BadgerStore) Stats() Stats {
	lsm, vlog := s.db.Size()
	return Stats{
		LSMSize:      lsm,
		ValueLogSize: vlog,
		LastGCTime:   s.lastGCTime.Load(),
	}
}

// Close stops the background loops, releases the ID lease and closes the DB.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("shutting down badger store")
		s.closed.Store(true)
		close(s.stopCh)
		s.wg.Wait()

		if rerr := s.seq.Release(); rerr != nil {
			err = fmt.Errorf("release sequence: %w", rerr)
		}
		if cerr := s.db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", cerr))
		}
		s.logger.Info("badger store shutdown complete")
	})
	return err
}

func (s *BadgerStore) registerMetrics() error {
	var err error
	s.lsmSize, err = s.reg.Register(metric.Definition{
		Name: "badger_lsm_size_bytes",
		Help: "Badger LSM tree size in bytes",
		Kind: metric.KindGauge,
	})
	if err != nil {
		return err
	}
	s.valueLogSize, err = s.reg.Register(metric.Definition{
		Name: "badger_value_log_size_bytes",
		Help: "Badger value log size in bytes",
		Kind: metric.KindGauge,
	})
	if err != nil {
		return err
	}

	s.updateMetrics()
	s.wg.Add(1)
	go s.metricsUpdateLoop()
	return nil
}

func (s *BadgerStore) updateMetrics() {
	stats := s.Stats()
	if err := s.reg.GaugeSet(s.lsmSize, nil, float64(stats.LSMSize)); err != nil {
		s.logger.Warn("failed to update badger metrics", "error", err)
	}
	if err := s.reg.GaugeSet(s.valueLogSize, nil, float64(stats.ValueLogSize)); err != nil {
		s.logger.Warn("failed to update badger metrics", "error", err)
	}
}

// metricsUpdateLoop periodically refreshes the size gauges.
func (s *BadgerStore) metricsUpdateLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateMetrics()
		case <-s.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (s *BadgerStore) gcLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
