package metric

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// StatusCoder is implemented by failures that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Instrumentor brackets request handling with golden signal bookkeeping.
// Recording failures are logged and never reach the request.
type Instrumentor struct {
	signals *GoldenSignals
	logger  *slog.Logger
	now     func() time.Time
}

// NewInstrumentor creates an instrumentor recording into signals.
func NewInstrumentor(signals *GoldenSignals, logger *slog.Logger) *Instrumentor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumentor{
		signals: signals,
		logger:  logger,
		now:     time.Now,
	}
}

// Span is one in-flight request. Finish must be called exactly once on every
// exit path; extra calls are ignored.
type Span struct {
	inst     *Instrumentor
	start    time.Time
	finished atomic.Bool
}

// Start marks a request as in flight and captures its start time.
func (i *Instrumentor) Start() *Span {
	if err := i.signals.Started(); err != nil {
		i.logger.Warn("failed to record request start", "error", err)
	}
	return &Span{inst: i, start: i.now()}
}

// Finish records the request outcome and releases the in-flight slot.
// failure is the recovered panic value or returned error, if any; when set,
// the status is taken from it instead of the written status.
func (s *Span) Finish(method, rawPath string, status int, failure any) {
	if !s.finished.CompareAndSwap(false, true) {
		return
	}
	i := s.inst
	defer func() {
		if err := i.signals.Finished(); err != nil {
			i.logger.Warn("failed to record request end", "error", err)
		}
	}()

	if failure != nil {
		status = StatusFromFailure(failure)
	} else if status == 0 {
		status = http.StatusOK
	}

	err := i.signals.Record(Observation{
		Method:     method,
		Path:       rawPath,
		StatusCode: status,
		Duration:   i.now().Sub(s.start),
	})
	if err != nil {
		i.logger.Warn("failed to record request metrics",
			"method", method,
			"path", rawPath,
			"status", status,
			"error", err)
	}
}

// StatusFromFailure returns the HTTP status associated with a failure, or
// 500 when it carries none.
func StatusFromFailure(failure any) int {
	var sc StatusCoder
	switch f := failure.(type) {
	case StatusCoder:
		sc = f
	case error:
		if !errors.As(f, &sc) {
			return http.StatusInternalServerError
		}
	default:
		return http.StatusInternalServerError
	}
	if st := sc.HTTPStatus(); st >= 100 && st <= 599 {
		return st
	}
	return http.StatusInternalServerError
}
