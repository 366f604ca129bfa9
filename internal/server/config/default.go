package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "0.0.0.0:3000"
	DefaultCORSOrigin      = "*"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultStorageEngine = "memory"
	DefaultDataDir       = "/var/lib/goldtodo/data"
	DefaultGCInterval    = 10 * time.Minute

	DefaultMetricsPath         = "/metrics"
	DefaultRemoteWriteInterval = 15 * time.Second
	DefaultRemoteWriteTimeout  = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				CORSOrigins:     []string{DefaultCORSOrigin},
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				IdleTimeout:     DefaultIdleTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Storage: StorageSection{
			Engine:     DefaultStorageEngine,
			DataDir:    DefaultDataDir,
			Seed:       true,
			GCInterval: DefaultGCInterval,
			SyncWrites: true,
		},
		Metrics: MetricsSection{
			Path: DefaultMetricsPath,
			RemoteWrite: RemoteWriteConfig{
				Interval: DefaultRemoteWriteInterval,
				Timeout:  DefaultRemoteWriteTimeout,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
