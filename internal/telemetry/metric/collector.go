package metric

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StateSource reports a point-in-time breakdown of application state, keyed
// by the value of a single label.
type StateSource interface {
	StateCounts(ctx context.Context) (map[string]float64, error)
}

// StateCollector exposes a StateSource as a gauge family computed at scrape
// time, so the values never drift from the source of truth.
type StateCollector struct {
	desc    *prometheus.Desc
	source  StateSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewStateCollector creates a collector for the family name{label=...}.
func NewStateCollector(name, help, label string, source StateSource, logger *slog.Logger) *StateCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateCollector{
		desc:    prometheus.NewDesc(name, help, []string{label}, nil),
		source:  source,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Describe implements prometheus.Collector.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. A failing source is skipped so the
// rest of the scrape still succeeds.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.source.StateCounts(ctx)
	if err != nil {
		c.logger.Warn("state collector skipped", "desc", c.desc.String(), "error", err)
		return
	}
	for value, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, n, value)
	}
}
