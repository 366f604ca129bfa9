// Package handler provides HTTP request handlers for goldtodo.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/infra/buildinfo"
	"github.com/yndnr/goldtodo/internal/telemetry/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// probeMethods are tried when a path matches but the method does not.
var probeMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete,
}

// Config holds the handler dependencies.
type Config struct {
	Todos *service.TodoService

	// Metrics serves the exposition endpoint. Nil leaves it unmounted.
	Metrics     http.Handler
	MetricsPath string

	Logger *slog.Logger

	// PingTimeout bounds storage checks in the health endpoints.
	PingTimeout time.Duration
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	todos       *service.TodoService
	logger      *slog.Logger
	build       buildinfo.Info
	started     time.Time
	pingTimeout time.Duration
	mux         *http.ServeMux
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}

	h := &Handler{
		todos:       cfg.Todos,
		logger:      log,
		build:       buildinfo.Get(),
		started:     time.Now(),
		pingTimeout: pingTimeout,
		mux:         http.NewServeMux(),
	}

	h.registerRoutes()
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		h.mux.Handle("GET "+path, cfg.Metrics)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /health/live", h.handleLive)
	h.mux.HandleFunc("GET /health/ready", h.handleReady)

	// Todo endpoints
	h.mux.HandleFunc("POST /todos", h.handleCreateTodo)
	h.mux.HandleFunc("GET /todos", h.handleListTodos)
	h.mux.HandleFunc("GET /todos/{id}", h.handleGetTodo)
	h.mux.HandleFunc("PATCH /todos/{id}", h.handleUpdateTodo)
	h.mux.HandleFunc("PATCH /todos/{id}/toggle", h.handleToggleTodo)
	h.mux.HandleFunc("DELETE /todos/{id}", h.handleDeleteTodo)

	h.mux.HandleFunc("/", h.handleFallback)
}

// handleFallback answers requests no route matched: 405 when another
// method would have matched the path, 404 otherwise.
func (h *Handler) handleFallback(w http.ResponseWriter, r *http.Request) {
	var allowed []string
	for _, m := range probeMethods {
		if m == r.Method {
			continue
		}
		probe := &http.Request{Method: m, URL: r.URL, Host: r.Host, Header: http.Header{}}
		if _, pattern := h.mux.Handler(probe); pattern != "" && pattern != "/" {
			allowed = append(allowed, m)
		}
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		h.writeError(w, r, domain.ErrMethodNotAllowed.WithDetails(r.Method+" "+r.URL.Path))
		return
	}
	h.writeError(w, r, domain.ErrRouteNotFound.WithDetails(r.Method+" "+r.URL.Path))
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError converts err to an error envelope. Errors that are not domain
// errors are logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "error", err, "path", r.URL.Path)
		de = domain.ErrInternalServer
	} else if de.HTTPStatus() >= http.StatusInternalServerError {
		logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err, "path", r.URL.Path)
	}
	WriteError(w, r, de)
}

// WriteError writes the error envelope for a domain error.
func WriteError(w http.ResponseWriter, r *http.Request, de *domain.DomainError) {
	response := NewErrorResponse(logger.RequestIDFromContext(r.Context()), de.Code, de.Message, de.Details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(de.HTTPStatus())
	json.NewEncoder(w).Encode(response)
}
