// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for goldtodo-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the sustained requests per second allowed per client
	// IP. Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures the todo store.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	// Seed loads sample todos into an empty store at startup.
	Seed bool `koanf:"seed"`

	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// MetricsSection configures metric exposition.
type MetricsSection struct {
	// Path is where the exposition endpoint is mounted.
	Path string `koanf:"path"`

	// RuntimeCollectors adds Go runtime and process metrics.
	RuntimeCollectors bool `koanf:"runtime_collectors"`

	RemoteWrite RemoteWriteConfig `koanf:"remote_write"`
}

// RemoteWriteConfig configures pushing metrics to a remote-write endpoint.
// An empty URL disables it.
type RemoteWriteConfig struct {
	URL      string            `koanf:"url"`
	Interval time.Duration     `koanf:"interval"`
	Timeout  time.Duration     `koanf:"timeout"`
	Labels   map[string]string `koanf:"labels"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
