package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/telemetry/logger"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newInstrumentor(t *testing.T) (*metric.Registry, *metric.Instrumentor) {
	t.Helper()
	reg := metric.NewRegistry()
	g, err := metric.NewGoldenSignals(reg)
	require.NoError(t, err)
	return reg, metric.NewInstrumentor(g, quietLogger())
}

func requestsTotal(t *testing.T, reg *metric.Registry, method, path, status string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == method && labels["path"] == path && labels["status_code"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func activeConnections(t *testing.T, reg *metric.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "http_active_connections" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("http_active_connections not exposed")
	return 0
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))
	_, err := ulid.ParseStrict(seen)
	assert.NoError(t, err, "generated request ID should be a ULID")
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set(HeaderRequestID, "upstream-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-42", seen)
	assert.Equal(t, "upstream-42", rec.Header().Get(HeaderRequestID))
}

func TestInstrument_RecordsStatusAndPath(t *testing.T) {
	reg, inst := newInstrumentor(t)
	h := Instrument(inst)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos/42", nil))

	assert.Equal(t, 1.0, requestsTotal(t, reg, "GET", "/todos/:id", "404"))
	assert.Equal(t, 0.0, activeConnections(t, reg))

	out, err := reg.Metrics()
	require.NoError(t, err)
	assert.Contains(t, out, `http_errors_total{error_type="client_error",method="GET",path="/todos/:id",status_code="404"} 1`)
}

func TestInstrument_ImplicitOK(t *testing.T) {
	reg, inst := newInstrumentor(t)
	h := Instrument(inst)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 1.0, requestsTotal(t, reg, "GET", "/health", "200"))
}

func TestInstrument_DoesNotAlterResponse(t *testing.T) {
	_, inst := newInstrumentor(t)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "1")
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "body")
	})

	plain := httptest.NewRecorder()
	inner.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/x", nil))

	wrapped := httptest.NewRecorder()
	Instrument(inst)(inner).ServeHTTP(wrapped, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, plain.Code, wrapped.Code)
	assert.Equal(t, plain.Body.String(), wrapped.Body.String())
	assert.Equal(t, plain.Header(), wrapped.Header())
}

func TestInstrument_PanicIsRecordedAndReraised(t *testing.T) {
	reg, inst := newInstrumentor(t)
	h := Instrument(inst)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(domain.ErrTodoNotFound)
	}))

	assert.PanicsWithValue(t, domain.ErrTodoNotFound, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/todos/5/toggle", nil))
	})

	assert.Equal(t, 1.0, requestsTotal(t, reg, "PATCH", "/todos/:id/toggle", "404"))
	assert.Equal(t, 0.0, activeConnections(t, reg))
}

func TestInstrument_StackedTwiceRecordsOnce(t *testing.T) {
	reg, inst := newInstrumentor(t)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		Instrument(inst), Instrument(inst))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos", nil))

	assert.Equal(t, 1.0, requestsTotal(t, reg, "GET", "/todos", "200"))
	assert.Equal(t, 0.0, activeConnections(t, reg))
}

func TestInstrument_InFlightDuringRequest(t *testing.T) {
	reg, inst := newInstrumentor(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h := Instrument(inst)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
	}))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos", nil))
		}()
		<-entered
	}

	assert.Equal(t, 3.0, activeConnections(t, reg))
	close(release)
	wg.Wait()
	assert.Equal(t, 0.0, activeConnections(t, reg))
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name     string
		panicVal any
		wantCode int
		wantErr  string
	}{
		{"string", "boom", http.StatusInternalServerError, "GT-SYS-5000"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "GT-SYS-5000"},
		{"domain error", domain.ErrTodoNotFound, http.StatusNotFound, "GT-TODO-4040"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := Recover(slog.New(slog.NewTextHandler(&logs, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicVal)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body["code"])
			assert.Contains(t, logs.String(), "panic recovered")
		})
	}
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	h := Recover(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecover_AfterHeaderWritten(t *testing.T) {
	h := Recover(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestInstrumentRecover_PanicCountsAs500(t *testing.T) {
	reg, inst := newInstrumentor(t)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Instrument(inst), Recover(quietLogger()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos/3", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, requestsTotal(t, reg, "GET", "/todos/:id", "500"))
	assert.Equal(t, 0.0, activeConnections(t, reg))
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		CORS([]string{"http://localhost:5173"})(ok).ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(rec, req)

		assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		CORS([]string{"http://localhost:5173"})(ok).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/todos/1", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "GT-SYS-4290", rec.Header().Get("X-Error-Code"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestAudit(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), RequestID(), Audit(log))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req.Header.Set(HeaderRequestID, "audit-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "audit-1", entry["request_id"])
	assert.Equal(t, float64(503), entry["status"])
	assert.Equal(t, "/health/ready", entry["path"])
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6", "[::1]:8080", nil, "::1"},
		{"forwarded", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
