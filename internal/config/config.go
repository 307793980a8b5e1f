// Package config loads client runtime configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds accepted by Config.Transport.Kind.
const (
	TransportLocal = "local"
	TransportHTTP  = "http"
	TransportBus   = "bus"
)

// Config holds all remote-UI client configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Client    ClientConfig    `yaml:"client"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig selects and configures the fulfillment backend.
type TransportConfig struct {
	Kind           string `yaml:"kind"`            // local, http, bus
	Endpoint       string `yaml:"endpoint"`        // base URL (http) or host:port (bus)
	TimeoutSeconds int    `yaml:"timeout_seconds"` // HTTP client timeout
}

// ClientConfig describes the running client build.
type ClientConfig struct {
	BuildNumber int `yaml:"build_number"`
}

// ExecutorConfig sizes the background worker pool.
type ExecutorConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// CacheConfig configures the persistent page cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures category logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`
	Debug      bool            `yaml:"debug"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns a config suitable for local development.
func Default() Config {
	return Config{
		Transport: TransportConfig{
			Kind:           TransportLocal,
			TimeoutSeconds: 30,
		},
		Client: ClientConfig{
			BuildNumber: 1,
		},
		Executor: ExecutorConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "pagecache.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, applying defaults for absent fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport.Kind {
	case TransportLocal, TransportHTTP, TransportBus:
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}
	if c.Executor.Workers < 1 {
		return fmt.Errorf("executor workers must be >= 1, got %d", c.Executor.Workers)
	}
	return nil
}

// HTTPTimeout returns the HTTP client timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Transport.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Transport.TimeoutSeconds) * time.Second
}
