// Package config loads application configuration from environment variables.
// All variables use the CRACK_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL runs
// the ledger in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// ledger cache.
type CacheConfig struct {
	URL string
}

// CatalogConfig holds partition-source settings.
type CatalogConfig struct {
	// DataDir holds one CSV/XLSX resource per partition.
	DataDir string
	// ManifestPath optionally names the partitions explicitly; when empty,
	// DataDir is scanned for supported files.
	ManifestPath string
	// RefreshInterval rebuilds the catalog periodically; 0 disables refresh.
	RefreshInterval time.Duration
	// PartitionTimeout bounds a single partition's read-and-parse.
	PartitionTimeout time.Duration
	// Concurrency bounds the number of partitions read in parallel.
	Concurrency int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with CRACK_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: envStr("CRACK_SERVER_HOST", "0.0.0.0"),
			Port: envInt("CRACK_SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:      envStr("CRACK_DATABASE_URL", ""),
			MaxConns: envInt("CRACK_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("CRACK_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("CRACK_CACHE_URL", ""),
		},
		Catalog: CatalogConfig{
			DataDir:          envStr("CRACK_CATALOG_DATA_DIR", "./data"),
			ManifestPath:     envStr("CRACK_CATALOG_MANIFEST", ""),
			RefreshInterval:  envDur("CRACK_CATALOG_REFRESH_INTERVAL", 0),
			PartitionTimeout: envDur("CRACK_CATALOG_PARTITION_TIMEOUT", 10*time.Second),
			Concurrency:      envInt("CRACK_CATALOG_CONCURRENCY", 8),
		},
		Log: LogConfig{
			Level:  envStr("CRACK_LOG_LEVEL", "info"),
			Format: envStr("CRACK_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Catalog.DataDir == "" {
		return fmt.Errorf("CRACK_CATALOG_DATA_DIR is required")
	}
	if c.Catalog.PartitionTimeout <= 0 {
		return fmt.Errorf("CRACK_CATALOG_PARTITION_TIMEOUT must be positive")
	}
	if c.Catalog.Concurrency <= 0 {
		return fmt.Errorf("CRACK_CATALOG_CONCURRENCY must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("CRACK_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
