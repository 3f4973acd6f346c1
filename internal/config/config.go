// Package config loads corekit's runtime settings from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. CORE_LOG_LEVEL.
const Prefix = "core"

// Config holds process-wide settings for the allocator core.
type Config struct {
	// LogEnabled turns on the process logger.
	LogEnabled bool `envconfig:"LOG_ENABLED" default:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogJSON switches the logger to JSON records.
	LogJSON bool `envconfig:"LOG_JSON" default:"false"`

	// LogAlloc logs every tracked allocation and deallocation at debug level.
	LogAlloc bool `envconfig:"LOG_ALLOC" default:"false"`

	// PageBacking makes Init back the default arenas with OS pages instead
	// of the Go heap.
	PageBacking bool `envconfig:"PAGE_BACKING" default:"false"`

	// ScratchSize is the size in bytes of the default scratch arena.
	ScratchSize uint32 `envconfig:"SCRATCH_SIZE" default:"1048576"`
}

// Default returns the configuration used when nothing is set in the environment.
func Default() Config {
	return Config{
		LogLevel:    "info",
		ScratchSize: 1 << 20,
	}
}

// Load reads the configuration from CORE_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the core cannot run with.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.ScratchSize == 0 {
		return fmt.Errorf("config: scratch size must be > 0")
	}
	return nil
}
