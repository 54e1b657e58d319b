// Package config provides configuration loading for chatembeddingd.
package config

import (
	"fmt"
	"time"
)

// Store providers.
const (
	ProviderQdrant = "qdrant"
	ProviderMemory = "memory"
)

// Config is the full daemon configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// TelemetryConfig configures OTLP export. Disabled by default.
type TelemetryConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Endpoint   string  `koanf:"endpoint"`
	Insecure   bool    `koanf:"insecure"`
	SampleRate float64 `koanf:"sample_rate"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	WriteTimeout    Duration `koanf:"write_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Provider string       `koanf:"provider"`
	Qdrant   QdrantConfig `koanf:"qdrant"`
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	Host           string   `koanf:"host"`
	Port           int      `koanf:"port"`
	UseTLS         bool     `koanf:"use_tls"`
	APIKey         Secret   `koanf:"api_key"`
	Collection     string   `koanf:"collection"`
	RequestTimeout Duration `koanf:"request_timeout"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Store.Provider == "" {
		cfg.Store.Provider = ProviderQdrant
	}
	if cfg.Store.Qdrant.Host == "" {
		cfg.Store.Qdrant.Host = "localhost"
	}
	if cfg.Store.Qdrant.Port == 0 {
		cfg.Store.Qdrant.Port = 6334
	}
	if cfg.Store.Qdrant.Collection == "" {
		cfg.Store.Qdrant.Collection = "chat_embeddings"
	}
	if cfg.Store.Qdrant.RequestTimeout == 0 {
		cfg.Store.Qdrant.RequestTimeout = Duration(30 * time.Second)
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	switch c.Store.Provider {
	case ProviderQdrant:
		if c.Store.Qdrant.Host == "" {
			return fmt.Errorf("store.qdrant.host is required")
		}
		if c.Store.Qdrant.Port <= 0 || c.Store.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid store.qdrant.port: %d", c.Store.Qdrant.Port)
		}
		if c.Store.Qdrant.Collection == "" {
			return fmt.Errorf("store.qdrant.collection is required")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("invalid store provider: %q (expected %q or %q)", c.Store.Provider, ProviderQdrant, ProviderMemory)
	}

	return nil
}
