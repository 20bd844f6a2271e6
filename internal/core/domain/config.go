package domain

import "time"

// ConfigFileName is the name of the optional configuration file.
const ConfigFileName = "stashsync.yaml"

// Config is the runtime configuration of the cache layer.
type Config struct {
	// Path is the file the config was read from, empty when defaults are used.
	Path string
	// PollInterval overrides the declared polling interval when non-zero.
	PollInterval time.Duration
	// GCInterval is how often unused entries are swept.
	GCInterval time.Duration
	// Persistence is the DSN of the snapshot backend. Empty disables persistence.
	Persistence string
	LogJSON     bool
	LogLevel    string
	Upstream    UpstreamConfig
}

// UpstreamConfig tunes the simulated upstream.
type UpstreamConfig struct {
	Latency         time.Duration
	StaleReadWindow time.Duration
}

// DefaultGCInterval is the retention sweep period used when none is configured.
const DefaultGCInterval = time.Minute

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		GCInterval: DefaultGCInterval,
		LogLevel:   "info",
	}
}
