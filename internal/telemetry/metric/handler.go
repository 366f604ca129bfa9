package metric

import (
	"io"
	"log/slog"
	"net/http"
)

// Exposer renders metrics in a scrapeable text format.
type Exposer interface {
	Metrics() (string, error)
	ContentType() string
}

// Handler serves the current metrics of e. Render failures produce a 500 and
// are logged; the scrape endpoint never takes the process down.
func Handler(e Exposer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := e.Metrics()
		if err != nil {
			logger.Error("failed to render metrics", "error", err)
			http.Error(w, "failed to render metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", e.ContentType())
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, body); err != nil {
			logger.Debug("metrics write aborted", "error", err)
		}
	})
}

// Handler serves this registry's metrics.
func (r *Registry) Handler(logger *slog.Logger) http.Handler {
	return Handler(r, logger)
}
