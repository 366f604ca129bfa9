package metric

import (
	"log/slog"
	"time"
)

// Storage metric names.
const (
	QueryDurationName   = "db_query_duration_seconds"
	PoolActiveConnsName = "db_pool_active_connections"
)

// QueryDurationBuckets are the storage latency bounds in seconds.
var QueryDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// QuerySignals times storage operations and tracks how many are in flight.
type QuerySignals struct {
	reg      *Registry
	duration *Handle
	active   *Handle
	logger   *slog.Logger
}

// NewQuerySignals registers the storage families on reg.
func NewQuerySignals(reg *Registry, logger *slog.Logger) (*QuerySignals, error) {
	duration, err := reg.Register(Definition{
		Name:       QueryDurationName,
		Help:       "Database query duration in seconds",
		Kind:       KindHistogram,
		LabelNames: []string{"operation", "table"},
		Buckets:    QueryDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	active, err := reg.Register(Definition{
		Name: PoolActiveConnsName,
		Help: "Number of active database connections in the pool",
		Kind: KindGauge,
	})
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuerySignals{reg: reg, duration: duration, active: active, logger: logger}, nil
}

// Track marks one storage operation as started. The returned func must be
// called when it completes.
//
//	defer q.Track("findMany", "todo")()
func (q *QuerySignals) Track(operation, table string) func() {
	if err := q.reg.GaugeAdd(q.active, nil, 1); err != nil {
		q.logger.Warn("failed to record query start", "error", err)
	}
	start := time.Now()
	return func() {
		labels := Labels{"operation": operation, "table": table}
		if err := q.reg.HistogramObserve(q.duration, labels, time.Since(start).Seconds()); err != nil {
			q.logger.Warn("failed to record query duration", "operation", operation, "error", err)
		}
		if err := q.reg.GaugeAdd(q.active, nil, -1); err != nil {
			q.logger.Warn("failed to record query end", "error", err)
		}
	}
}
