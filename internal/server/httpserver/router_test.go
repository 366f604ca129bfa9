package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/storage/memory"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

type routerEnv struct {
	router http.Handler
	reg    *metric.Registry
	svc    *service.TodoService
}

func newRouterEnv(t *testing.T, mutate func(*RouterConfig)) *routerEnv {
	t.Helper()
	reg := metric.NewRegistry()
	golden, err := metric.NewGoldenSignals(reg)
	require.NoError(t, err)
	queries, err := metric.NewQuerySignals(reg, quietLogger())
	require.NoError(t, err)

	svc := service.NewTodoService(memory.NewTodoStore(), queries, quietLogger())
	require.NoError(t, reg.RegisterCollector(metric.NewStateCollector(
		"todo_items", "Number of todo items by state", "state", svc, quietLogger())))

	cfg := DefaultRouterConfig()
	cfg.Todos = svc
	cfg.Instrumentor = metric.NewInstrumentor(golden, quietLogger())
	cfg.Metrics = reg.Handler(quietLogger())
	cfg.Logger = quietLogger()
	cfg.EnableAudit = false
	if mutate != nil {
		mutate(cfg)
	}
	return &routerEnv{router: NewRouter(cfg), reg: reg, svc: svc}
}

func (e *routerEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) scrape(t *testing.T) string {
	t.Helper()
	rec := e.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRouter_GoldenSignalsScenario(t *testing.T) {
	e := newRouterEnv(t, nil)

	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/todos", `{"title":"one"}`).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/todos", "").Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/todos/1", "").Code)
	require.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/todos/999", "").Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPatch, "/todos/1/toggle", "").Code)
	require.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/todos/1", "").Code)

	out := e.scrape(t)
	assert.Contains(t, out, `http_requests_total{method="POST",path="/todos",status_code="201"} 1`)
	assert.Contains(t, out, `http_requests_total{method="GET",path="/todos",status_code="200"} 1`)
	assert.Contains(t, out, `http_requests_total{method="GET",path="/todos/:id",status_code="200"} 1`)
	assert.Contains(t, out, `http_requests_total{method="GET",path="/todos/:id",status_code="404"} 1`)
	assert.Contains(t, out, `http_requests_total{method="PATCH",path="/todos/:id/toggle",status_code="200"} 1`)
	assert.Contains(t, out, `http_requests_total{method="DELETE",path="/todos/:id",status_code="204"} 1`)
	assert.Contains(t, out, `http_errors_total{error_type="client_error",method="GET",path="/todos/:id",status_code="404"} 1`)
	assert.Contains(t, out, `http_request_duration_seconds_count{method="POST",path="/todos",status_code="201"} 1`)
	assert.Contains(t, out, `db_query_duration_seconds_count{operation="create",table="todo"} 1`)
	assert.Contains(t, out, `todo_items{state="open"} 0`)

	// The scrape runs inside the instrumented chain, so only this request
	// is in flight while it renders.
	assert.Contains(t, out, "http_active_connections 1")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	e := newRouterEnv(t, nil)

	rec := e.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, e.reg.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "# TYPE http_requests_total counter")

	rec = e.do(http.MethodPost, "/metrics", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CustomMetricsPath(t *testing.T) {
	e := newRouterEnv(t, func(c *RouterConfig) { c.MetricsPath = "/internal/metrics" })

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/internal/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/metrics", "").Code)
}

func TestRouter_RequestIDInEnvelope(t *testing.T) {
	e := newRouterEnv(t, nil)

	rec := e.do(http.MethodGet, "/todos/404", "")
	var body struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, rec.Header().Get(HeaderRequestID), body.RequestID)
}

func TestRouter_RateLimitSkipsOps(t *testing.T) {
	e := newRouterEnv(t, func(c *RouterConfig) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/todos", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, e.do(http.MethodGet, "/todos", "").Code)

	// Probes and scrapes are never throttled.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/health/live", "").Code)
		assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/metrics", "").Code)
	}

	assert.Contains(t, e.scrape(t), `http_requests_total{method="GET",path="/todos",status_code="429"} 1`)
}

func TestRouter_Seeded(t *testing.T) {
	e := newRouterEnv(t, nil)
	n, err := e.svc.Seed(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)

	out := e.scrape(t)
	assert.Contains(t, out, `todo_items{state="completed"} 1`)
	assert.Contains(t, out, `todo_items{state="open"} 4`)
}

func TestRouter_DeleteMissingCountsClientError(t *testing.T) {
	e := newRouterEnv(t, nil)

	require.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/todos/3", "").Code)

	out := e.scrape(t)
	assert.Contains(t, out, `http_requests_total{method="DELETE",path="/todos/:id",status_code="404"} 1`)
	assert.Contains(t, out, `http_errors_total{error_type="client_error",method="DELETE",path="/todos/:id",status_code="404"} 1`)
	assert.NotContains(t, out, `error_type="server_error"`)
}

// unavailableRepo fails every lookup the way a lost database connection does.
type unavailableRepo struct{ service.TodoRepository }

func (unavailableRepo) Get(context.Context, int64) (*domain.Todo, error) {
	return nil, domain.ErrServiceUnavailable
}

func TestRouter_UnavailableCountsServerError(t *testing.T) {
	e := newRouterEnv(t, func(cfg *RouterConfig) {
		cfg.Todos = service.NewTodoService(unavailableRepo{}, nil, quietLogger())
	})

	require.Equal(t, http.StatusServiceUnavailable, e.do(http.MethodGet, "/todos/3", "").Code)

	out := e.scrape(t)
	assert.Contains(t, out, `http_requests_total{method="GET",path="/todos/:id",status_code="503"} 1`)
	assert.Contains(t, out, `http_errors_total{error_type="server_error",method="GET",path="/todos/:id",status_code="503"} 1`)
	assert.NotContains(t, out, `error_type="client_error"`)
}

func TestRouter_InvalidUTF8PathIsCounted(t *testing.T) {
	e := newRouterEnv(t, nil)

	rec := e.do(http.MethodGet, "/todos/%ff", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := e.scrape(t)
	assert.Contains(t, out, "http_requests_total{method=\"GET\",path=\"/todos/\uFFFD\",status_code=\"400\"} 1")
	assert.Contains(t, out, "http_errors_total{error_type=\"client_error\",method=\"GET\",path=\"/todos/\uFFFD\",status_code=\"400\"} 1")
	assert.Contains(t, out, "http_request_duration_seconds_count{method=\"GET\",path=\"/todos/\uFFFD\",status_code=\"400\"} 1")
}
