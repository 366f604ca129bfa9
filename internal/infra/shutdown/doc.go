// Package shutdown provides graceful shutdown for goldtodo-server.
//
// Hooks registered with OnShutdown run in reverse registration order once
// SIGINT or SIGTERM arrives, Trigger is called, or the Wait context ends.
// All hooks share a single timeout and every hook runs even when an
// earlier one fails.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("store", func(ctx context.Context) error { return store.Close() })
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(context.Background())
package shutdown
