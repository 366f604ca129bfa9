// Package metric provides the Prometheus-backed metric registry for goldtodo.
package metric

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// textFormat is the Prometheus text exposition format, version 0.0.4.
var textFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// Registry owns every metric family of the process.
//
// Definitions are guarded by mu. Series creation and value updates are
// delegated to the client_golang vectors, which create each child exactly
// once and update it atomically, so updates never take the registry lock.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]*Handle
	promReg *prometheus.Registry
}

// Option configures a Registry.
type Option func(*Registry)

// WithRuntimeCollectors registers the Go runtime and process collectors.
// Their values change between scrapes on their own.
func WithRuntimeCollectors() Option {
	return func(r *Registry) {
		r.promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		defs:    make(map[string]*Handle),
		promReg: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle refers to a registered metric family.
type Handle struct {
	def       Definition
	counter   *prometheus.CounterVec
	gauge     *prometheus.GaugeVec
	histogram *prometheus.HistogramVec
}

// Name returns the family name.
func (h *Handle) Name() string { return h.def.Name }

// Kind returns the family kind.
func (h *Handle) Kind() Kind { return h.def.Kind }

// Definition returns a copy of the registered definition.
func (h *Handle) Definition() Definition { return h.def.clone() }

// Register adds a metric family. Registering an identical definition again
// returns the existing handle; a different definition under the same name
// fails with ErrDuplicateMetricName.
func (r *Registry) Register(def Definition) (*Handle, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	def = def.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.defs[def.Name]; ok {
		if existing.def.equal(def) {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %s already registered as %s%v",
			ErrDuplicateMetricName, def.Name, existing.def.Kind, existing.def.LabelNames)
	}

	h := &Handle{def: def}
	var c prometheus.Collector
	switch def.Kind {
	case KindCounter:
		h.counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.LabelNames)
		c = h.counter
	case KindGauge:
		h.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: def.Help}, def.LabelNames)
		c = h.gauge
	case KindHistogram:
		h.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    def.Name,
			Help:    def.Help,
			Buckets: def.Buckets,
		}, def.LabelNames)
		c = h.histogram
	}

	if err := r.promReg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil, fmt.Errorf("%w: %s: %v", ErrDuplicateMetricName, def.Name, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, def.Name, err)
	}

	// Unlabeled families have exactly one series; expose it at zero right away.
	if len(def.LabelNames) == 0 {
		switch def.Kind {
		case KindCounter:
			h.counter.WithLabelValues()
		case KindGauge:
			h.gauge.WithLabelValues()
		case KindHistogram:
			h.histogram.WithLabelValues()
		}
	}

	r.defs[def.Name] = h
	return h, nil
}

// MustRegister is like Register but panics on error. It is meant for
// package-level wiring of fixed definitions.
func (r *Registry) MustRegister(def Definition) *Handle {
	h, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.defs[name]
	return h, ok
}

// RegisterCollector adds a custom collector, such as a scrape-time view of
// application state.
func (r *Registry) RegisterCollector(c prometheus.Collector) error {
	if err := r.promReg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return fmt.Errorf("%w: %v", ErrDuplicateMetricName, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return nil
}

// CounterInc adds one to a counter series.
func (r *Registry) CounterInc(h *Handle, labels Labels) error {
	return r.CounterAdd(h, labels, 1)
}

// CounterAdd adds a non-negative delta to a counter series, creating the
// series on first use.
func (r *Registry) CounterAdd(h *Handle, labels Labels, delta float64) error {
	if err := h.expect(KindCounter); err != nil {
		return err
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("%w: %s: delta %v", ErrInvalidObservation, h.def.Name, delta)
	}
	if delta < 0 {
		return fmt.Errorf("%w: %s: delta %v", ErrNegativeCounterDelta, h.def.Name, delta)
	}
	pl, err := h.labels(labels)
	if err != nil {
		return err
	}
	c, err := h.counter.GetMetricWith(pl)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidLabelValue, h.def.Name, err)
	}
	c.Add(delta)
	return nil
}

// GaugeSet sets a gauge series to v.
func (r *Registry) GaugeSet(h *Handle, labels Labels, v float64) error {
	g, err := r.gaugeSeries(h, labels, v)
	if err != nil {
		return err
	}
	g.Set(v)
	return nil
}

// GaugeAdd adds delta to a gauge series. Negative deltas are allowed.
func (r *Registry) GaugeAdd(h *Handle, labels Labels, delta float64) error {
	g, err := r.gaugeSeries(h, labels, delta)
	if err != nil {
		return err
	}
	g.Add(delta)
	return nil
}

func (r *Registry) gaugeSeries(h *Handle, labels Labels, v float64) (prometheus.Gauge, error) {
	if err := h.expect(KindGauge); err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s: value %v", ErrInvalidObservation, h.def.Name, v)
	}
	pl, err := h.labels(labels)
	if err != nil {
		return nil, err
	}
	g, err := h.gauge.GetMetricWith(pl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLabelValue, h.def.Name, err)
	}
	return g, nil
}

// HistogramObserve records v into a histogram series.
func (r *Registry) HistogramObserve(h *Handle, labels Labels, v float64) error {
	if err := h.expect(KindHistogram); err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s: value %v", ErrInvalidObservation, h.def.Name, v)
	}
	pl, err := h.labels(labels)
	if err != nil {
		return err
	}
	o, err := h.histogram.GetMetricWith(pl)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidLabelValue, h.def.Name, err)
	}
	o.Observe(v)
	return nil
}

// Gather implements prometheus.Gatherer. Families are sorted by name and
// series by label values.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.promReg.Gather()
}

// Metrics renders every family in the text exposition format. The output is
// byte-identical across calls when no series changed in between.
func (r *Registry) Metrics() (string, error) {
	mfs, err := r.promReg.Gather()
	if err != nil {
		return "", fmt.Errorf("%w: gather: %v", ErrExposition, err)
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, textFormat)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return "", fmt.Errorf("%w: encode %s: %v", ErrExposition, mf.GetName(), err)
		}
	}
	return buf.String(), nil
}

// ContentType returns the media type of the output of Metrics.
func (r *Registry) ContentType() string {
	return string(textFormat)
}

func (h *Handle) expect(k Kind) error {
	if h == nil {
		return fmt.Errorf("%w: nil handle", ErrKindMismatch)
	}
	if h.def.Kind != k {
		return fmt.Errorf("%w: %s is a %s, not a %s", ErrKindMismatch, h.def.Name, h.def.Kind, k)
	}
	return nil
}

// labels checks that the supplied keys are exactly the definition's label names.
func (h *Handle) labels(labels Labels) (prometheus.Labels, error) {
	if len(labels) != len(h.def.LabelNames) {
		return nil, fmt.Errorf("%w: %s: want labels %v, got %d labels",
			ErrLabelCardinalityMismatch, h.def.Name, h.def.LabelNames, len(labels))
	}
	for _, n := range h.def.LabelNames {
		if _, ok := labels[n]; !ok {
			return nil, fmt.Errorf("%w: %s: missing label %q", ErrLabelCardinalityMismatch, h.def.Name, n)
		}
	}
	return prometheus.Labels(labels), nil
}
