package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/core/service"
	"github.com/yndnr/goldtodo/internal/infra/buildinfo"
	"github.com/yndnr/goldtodo/internal/infra/confloader"
	"github.com/yndnr/goldtodo/internal/infra/shutdown"
	"github.com/yndnr/goldtodo/internal/infra/tlscert"
	"github.com/yndnr/goldtodo/internal/server/config"
	"github.com/yndnr/goldtodo/internal/server/httpserver"
	"github.com/yndnr/goldtodo/internal/storage"
	"github.com/yndnr/goldtodo/internal/telemetry/logger"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "goldtodo-server",
		Usage:   "Todo API with golden signal metrics",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"GOLDTODO_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Validate the configuration, print it and exit",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), c.Bool("check"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, checkOnly bool) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Setup(cfg.LoggerConfig())
	if checkOnly {
		log.Info("configuration is valid", "config", config.Sanitize(cfg))
		return nil
	}

	log.Info("starting goldtodo-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	// Metrics
	reg, signals, queries, err := initMetrics(cfg, log)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// Storage and services
	store, err := storage.Open(cfg.StorageConfig(), reg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return store.Close()
	})

	todos := service.NewTodoService(store, queries, log)
	if cfg.Storage.Seed {
		if _, err := todos.Seed(ctx); err != nil {
			store.Close()
			return fmt.Errorf("seed todos: %w", err)
		}
	}
	if err := reg.RegisterCollector(metric.NewStateCollector(
		"todo_items", "Number of todo items by state", "state", todos, log)); err != nil {
		store.Close()
		return fmt.Errorf("register state collector: %w", err)
	}

	if rwCfg, ok := cfg.RemoteWriteConfig(); ok {
		writer, err := metric.NewRemoteWriter(rwCfg, reg, log)
		if err != nil {
			store.Close()
			return fmt.Errorf("init remote write: %w", err)
		}
		writer.Start()
		shutdownHandler.OnShutdown("remote-write", func(context.Context) error {
			writer.Stop()
			return nil
		})
		log.Info("remote write enabled", "interval", rwCfg.Interval)
	}

	// HTTP
	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Todos = todos
	routerCfg.Instrumentor = metric.NewInstrumentor(signals, log)
	routerCfg.Metrics = reg.Handler(log)
	routerCfg.MetricsPath = cfg.Metrics.Path
	routerCfg.Logger = log
	routerCfg.CORSAllowedOrigins = cfg.Server.HTTP.CORSOrigins
	routerCfg.RateLimit = cfg.Server.HTTP.RateLimit
	routerCfg.RateBurst = cfg.Server.HTTP.RateBurst

	opts := httpserver.Options{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}
	if cfg.Server.HTTP.TLSCertFile != "" {
		reloader, err := tlscert.NewReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlscert.WithLogger(log))
		if err != nil {
			store.Close()
			return fmt.Errorf("load tls certificate: %w", err)
		}
		reloader.WatchAsync()
		shutdownHandler.OnShutdown("tls-reloader", func(context.Context) error {
			reloader.Stop()
			return nil
		})
		opts.TLSConfig = reloader.ServerConfig()
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		store.Close()
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg), opts)
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", ln.Addr().String(),
			"tls", opts.TLSConfig != nil,
			"metrics_path", cfg.Metrics.Path)
		if err := httpServer.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger("http server failed")
		}
	}()

	if configFile != "" {
		if stop, err := watchLogLevel(configFile, log); err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers the file and environment over the defaults and
// validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initMetrics builds the registry and the signal recorders.
func initMetrics(cfg *config.ServerConfig, log *slog.Logger) (*metric.Registry, *metric.GoldenSignals, *metric.QuerySignals, error) {
	var regOpts []metric.Option
	if cfg.Metrics.RuntimeCollectors {
		regOpts = append(regOpts, metric.WithRuntimeCollectors())
	}
	reg := metric.NewRegistry(regOpts...)

	if err := buildinfo.Register(reg); err != nil {
		return nil, nil, nil, err
	}
	signals, err := metric.NewGoldenSignals(reg)
	if err != nil {
		return nil, nil, nil, err
	}
	queries, err := metric.NewQuerySignals(reg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return reg, signals, queries, nil
}

// watchLogLevel re-reads the configuration file on change and applies a new
// log level. Other settings need a restart.
func watchLogLevel(configFile string, log *slog.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "file", path, "error", err)
			return
		}
		old := logger.GetLevel()
		logger.SetLevel(cfg.Log.Level)
		if now := logger.GetLevel(); now != old {
			log.Info("log level changed", "from", old, "to", now)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}
