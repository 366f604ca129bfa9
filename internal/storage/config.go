package storage

import (
	"fmt"
	"time"
)

// Engine names.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
)

// Config selects and configures the todo storage engine.
type Config struct {
	// Engine is "memory" (default) or "badger".
	Engine string

	// DataDir is the badger directory. Ignored by the memory engine.
	DataDir string

	// Badger-specific tuning.
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio that makes a value-log file
	// eligible for rewrite (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// MetricsInterval is how often the size gauges are refreshed.
	// Default: 15s
	MetricsInterval time.Duration

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write.
	// Default: true
	SyncWrites bool

	// InMemory keeps everything in RAM. DataDir must be empty.
	InMemory bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Engine: EngineMemory,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		MetricsInterval:  15 * time.Second,
		CacheSize:        64 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}

// withDefaults fills zero values from DefaultBadgerConfig.
func (c BadgerConfig) withDefaults() BadgerConfig {
	d := DefaultBadgerConfig()
	if c.GCInterval <= 0 {
		c.GCInterval = d.GCInterval
	}
	if c.GCThreshold <= 0 || c.GCThreshold >= 1 {
		c.GCThreshold = d.GCThreshold
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	if c.CacheSize <= 0 {
		c.CacheSize = d.CacheSize
	}
	if c.ValueLogFileSize <= 0 {
		c.ValueLogFileSize = d.ValueLogFileSize
	}
	return c
}

// Validate checks engine-specific requirements.
func (c Config) Validate() error {
	switch c.Engine {
	case "", EngineMemory:
		return nil
	case EngineBadger:
		if c.DataDir == "" && !c.Badger.InMemory {
			return fmt.Errorf("storage: data_dir is required for the badger engine")
		}
		return nil
	default:
		return fmt.Errorf("storage: unknown engine %q", c.Engine)
	}
}
