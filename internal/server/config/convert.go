package config

import (
	"os"

	"github.com/yndnr/goldtodo/internal/storage"
	"github.com/yndnr/goldtodo/internal/telemetry/logger"
	"github.com/yndnr/goldtodo/internal/telemetry/metric"
)

// StorageConfig converts the storage section for storage.Open.
func (c *ServerConfig) StorageConfig() storage.Config {
	sc := storage.DefaultConfig()
	sc.Engine = c.Storage.Engine
	sc.DataDir = c.Storage.DataDir
	sc.Badger.GCInterval = c.Storage.GCInterval
	sc.Badger.SyncWrites = c.Storage.SyncWrites
	return sc
}

// LoggerConfig converts the log section for logger.New.
func (c *ServerConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: os.Stderr,
	}
}

// RemoteWriteConfig converts the remote-write section. ok is false when
// remote write is disabled.
func (c *ServerConfig) RemoteWriteConfig() (cfg metric.RemoteWriteConfig, ok bool) {
	rw := c.Metrics.RemoteWrite
	if rw.URL == "" {
		return metric.RemoteWriteConfig{}, false
	}
	return metric.RemoteWriteConfig{
		URL:      rw.URL,
		Interval: rw.Interval,
		Timeout:  rw.Timeout,
		Labels:   rw.Labels,
	}, true
}
