package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/server/httpserver/handler"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Todos handles todo operations.
	Todos *service.TodoService

	// Instrumentor records the golden signals. Nil disables instrumentation.
	Instrumentor *metric.Instrumentor

	// Metrics serves the exposition endpoint at MetricsPath.
	Metrics     http.Handler
	MetricsPath string

	// Logger for request logging.
	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins.
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit in requests/second. Zero disables it.
	RateLimit float64
	RateBurst int

	// EnableAudit enables access logging for all requests.
	EnableAudit bool

	// PingTimeout bounds the storage check in health endpoints.
	PingTimeout time.Duration
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Todo routes run through
// RequestID -> Instrument -> Recover -> CORS -> RateLimit -> Audit.
// Health and metrics routes skip CORS and rate limiting so probes and
// scrapes are never throttled.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	h := handler.New(handler.Config{
		Todos:       cfg.Todos,
		Metrics:     cfg.Metrics,
		MetricsPath: metricsPath,
		Logger:      log,
		PingTimeout: cfg.PingTimeout,
	})

	base := []Middleware{RequestID()}
	if cfg.Instrumentor != nil {
		base = append(base, Instrument(cfg.Instrumentor))
	}
	base = append(base, Recover(log))

	api := append([]Middleware{}, base...)
	api = append(api, CORS(cfg.CORSAllowedOrigins))
	if cfg.RateLimit > 0 {
		api = append(api, RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	ops := append([]Middleware{}, base...)
	if cfg.EnableAudit {
		api = append(api, Audit(log))
		ops = append(ops, Audit(log))
	}

	opsHandler := Chain(h, ops...)

	mux := http.NewServeMux()
	mux.Handle("/health", opsHandler)
	mux.Handle("/health/", opsHandler)
	mux.Handle(metricsPath, opsHandler)
	mux.Handle("/", Chain(h, api...))
	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsPath:        "/metrics",
		CORSAllowedOrigins: []string{"*"},
		EnableAudit:        true,
		PingTimeout:        2 * time.Second,
	}
}
