package metric

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eryajf/promwrite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RemoteWriteConfig configures periodic pushes to a Prometheus remote-write
// endpoint.
type RemoteWriteConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
	// Labels are attached to every pushed series, e.g. instance or job.
	Labels map[string]string
}

// RemoteWriter pushes snapshots of a Gatherer to a remote-write endpoint.
type RemoteWriter struct {
	cfg      RemoteWriteConfig
	client   *promwrite.Client
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	now      func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRemoteWriter creates a writer for cfg. It does nothing until Start or
// Push is called.
func NewRemoteWriter(cfg RemoteWriteConfig, g prometheus.Gatherer, logger *slog.Logger) (*RemoteWriter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote write: url is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteWriter{
		cfg:      cfg,
		client:   promwrite.NewClient(cfg.URL),
		gatherer: g,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Push gathers once and writes every sample.
func (w *RemoteWriter) Push(ctx context.Context) error {
	mfs, err := w.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("remote write: gather: %w", err)
	}
	series := toTimeSeries(mfs, w.now(), w.cfg.Labels)
	if len(series) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, &promwrite.WriteRequest{TimeSeries: series}); err != nil {
		return fmt.Errorf("remote write: %w", err)
	}
	return nil
}

// Start pushes on every interval until Stop is called.
func (w *RemoteWriter) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.loop()
	w.logger.Info("remote write started", "url", w.cfg.URL, "interval", w.cfg.Interval)
}

func (w *RemoteWriter) loop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Push(context.Background()); err != nil {
				w.logger.Warn("remote write failed", "error", err)
			}
		case <-w.stopCh:
			return
		}
	}
}

// Stop ends the push loop and waits for an in-progress push to finish.
func (w *RemoteWriter) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started.Load() {
			<-w.doneCh
		}
	})
}

// toTimeSeries flattens gathered families into remote-write samples using
// the same series names the text format produces.
func toTimeSeries(mfs []*dto.MetricFamily, ts time.Time, extra map[string]string) []promwrite.TimeSeries {
	var out []promwrite.TimeSeries

	add := func(name string, m *dto.Metric, v float64, more ...promwrite.Label) {
		labels := make([]promwrite.Label, 0, 1+len(m.GetLabel())+len(extra)+len(more))
		labels = append(labels, promwrite.Label{Name: "__name__", Value: name})
		for k, v := range extra {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}
		for _, lp := range m.GetLabel() {
			labels = append(labels, promwrite.Label{Name: lp.GetName(), Value: lp.GetValue()})
		}
		labels = append(labels, more...)
		sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
		out = append(out, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{Time: ts, Value: v},
		})
	}

	for _, mf := range mfs {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				add(name, m, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				add(name, m, m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				add(name, m, m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				for _, b := range h.GetBucket() {
					add(name+"_bucket", m, float64(b.GetCumulativeCount()),
						promwrite.Label{Name: "le", Value: formatBound(b.GetUpperBound())})
				}
				add(name+"_bucket", m, float64(h.GetSampleCount()),
					promwrite.Label{Name: "le", Value: "+Inf"})
				add(name+"_sum", m, h.GetSampleSum())
				add(name+"_count", m, float64(h.GetSampleCount()))
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				for _, q := range s.GetQuantile() {
					add(name, m, q.GetValue(),
						promwrite.Label{Name: "quantile", Value: formatBound(q.GetQuantile())})
				}
				add(name+"_sum", m, s.GetSampleSum())
				add(name+"_count", m, float64(s.GetSampleCount()))
			}
		}
	}
	return out
}

func formatBound(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
