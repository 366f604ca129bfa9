package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/server/httpserver"
	"github.com/yndnr/goldtodo/internal/storage/memory"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// testServer is a real goldtodo API backed by the memory store.
type testServer struct {
	*httptest.Server
	store *memory.TodoStore
	todos *service.TodoService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := metric.NewRegistry()
	golden, err := metric.NewGoldenSignals(reg)
	if err != nil {
		t.Fatal(err)
	}
	queries, err := metric.NewQuerySignals(reg, log)
	if err != nil {
		t.Fatal(err)
	}

	store := memory.NewTodoStore()
	todos := service.NewTodoService(store, queries, log)

	cfg := httpserver.DefaultRouterConfig()
	cfg.Todos = todos
	cfg.Instrumentor = metric.NewInstrumentor(golden, log)
	cfg.Metrics = reg.Handler(log)
	cfg.Logger = log
	cfg.EnableAudit = false

	ts := &testServer{
		Server: httptest.NewServer(httpserver.NewRouter(cfg)),
		store:  store,
		todos:  todos,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	if _, err := s.todos.Seed(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// runCLI runs the application against server with an isolated CLI config
// file and returns what it printed.
func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), server, args...)
}

func runCLIWithConfig(t *testing.T, configPath, server string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"goldtodo-cli", "--config", configPath}
	if server != "" {
		full = append(full, "--server", server)
	}
	full = append(full, args...)

	err := app.Run(full)
	return out.String(), err
}

// exitCode returns the exit code carried by err, or 0.
func exitCode(err error) int {
	if ec, ok := err.(cli.ExitCoder); ok {
		return ec.ExitCode()
	}
	return 0
}
