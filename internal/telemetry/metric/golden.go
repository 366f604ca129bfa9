package metric

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Golden signal metric names.
const (
	RequestsTotalName     = "http_requests_total"
	ErrorsTotalName       = "http_errors_total"
	RequestDurationName   = "http_request_duration_seconds"
	ActiveConnectionsName = "http_active_connections"
)

// RequestDurationBuckets are the latency histogram bounds in seconds.
var RequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Error types used as the error_type label.
const (
	ErrorTypeClient = "client_error"
	ErrorTypeServer = "server_error"
)

// Observation is the outcome of one handled request.
type Observation struct {
	Method     string
	Path       string // raw request path; normalized on record
	StatusCode int
	Duration   time.Duration
}

// GoldenSignals records traffic, errors, latency and saturation for HTTP
// requests.
type GoldenSignals struct {
	reg      *Registry
	requests *Handle
	errors   *Handle
	duration *Handle
	active   *Handle
}

// NewGoldenSignals registers the four golden signal families on reg.
func NewGoldenSignals(reg *Registry) (*GoldenSignals, error) {
	requestLabels := []string{"method", "path", "status_code"}
	defs := []Definition{
		{
			Name:       RequestsTotalName,
			Help:       "Total number of HTTP requests",
			Kind:       KindCounter,
			LabelNames: requestLabels,
		},
		{
			Name:       ErrorsTotalName,
			Help:       "Total number of HTTP errors (4xx and 5xx responses)",
			Kind:       KindCounter,
			LabelNames: []string{"method", "path", "status_code", "error_type"},
		},
		{
			Name:       RequestDurationName,
			Help:       "HTTP request duration in seconds",
			Kind:       KindHistogram,
			LabelNames: requestLabels,
			Buckets:    RequestDurationBuckets,
		},
		{
			Name: ActiveConnectionsName,
			Help: "Number of active HTTP connections",
			Kind: KindGauge,
		},
	}

	handles := make([]*Handle, len(defs))
	for i, d := range defs {
		h, err := reg.Register(d)
		if err != nil {
			return nil, err
		}
		handles[i] = h
	}

	return &GoldenSignals{
		reg:      reg,
		requests: handles[0],
		errors:   handles[1],
		duration: handles[2],
		active:   handles[3],
	}, nil
}

// Record accounts one completed request. All three updates are attempted
// even if one fails; the errors are joined.
func (g *GoldenSignals) Record(o Observation) error {
	labels := Labels{
		"method":      labelValue(o.Method),
		"path":        labelValue(NormalizePath(o.Path)),
		"status_code": strconv.Itoa(o.StatusCode),
	}

	var errs []error
	if err := g.reg.CounterInc(g.requests, labels); err != nil {
		errs = append(errs, err)
	}
	if err := g.reg.HistogramObserve(g.duration, labels, o.Duration.Seconds()); err != nil {
		errs = append(errs, err)
	}
	if et := ErrorType(o.StatusCode); et != "" {
		errLabels := Labels{
			"method":      labels["method"],
			"path":        labels["path"],
			"status_code": labels["status_code"],
			"error_type":  et,
		}
		if err := g.reg.CounterInc(g.errors, errLabels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Started marks a request as in flight.
func (g *GoldenSignals) Started() error {
	return g.reg.GaugeAdd(g.active, nil, 1)
}

// Finished marks a request as no longer in flight.
func (g *GoldenSignals) Finished() error {
	return g.reg.GaugeAdd(g.active, nil, -1)
}

// ErrorType classifies a status code: client_error for 4xx, server_error for
// 5xx and above, empty otherwise.
func ErrorType(status int) string {
	switch {
	case status >= 500:
		return ErrorTypeServer
	case status >= 400:
		return ErrorTypeClient
	default:
		return ""
	}
}

// NormalizePath replaces every purely numeric path segment with ":id" so that
// /todos/42/toggle and /todos/7/toggle share one series. It is idempotent.
func NormalizePath(path string) string {
	if !strings.ContainsAny(path, "0123456789") {
		return path
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if isDigits(s) {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

// labelValue replaces invalid UTF-8 so a malformed request path is still
// counted instead of being rejected by the registry.
func labelValue(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
