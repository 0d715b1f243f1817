// This file contains the lightweight configuration for standalone CLI
// operation: no PostgreSQL, no Redis, just the knowledge base files
// and an optional local history database.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// LiteConfig is a simplified configuration for the command-line
// assessor. It requires no external services.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the local history database

	// Knowledge base files
	AliasTablePath string
	DatabasePath   string

	// Resolver settings
	ResolverCacheSize int

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()

	return &LiteConfig{
		DataDir:           filepath.Join(homeDir, ".pgx-risk-engine"),
		AliasTablePath:    "data/alias_table.json",
		DatabasePath:      "data/pgx_database.json",
		ResolverCacheSize: 4096,
		LogLevel:          "warn",
		LogFormat:         "text",
	}
}

// LoadLiteConfig loads configuration from environment variables,
// falling back to defaults.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PHARMAGUARD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PHARMAGUARD_ALIAS_TABLE"); v != "" {
		cfg.AliasTablePath = v
	}
	if v := os.Getenv("PHARMAGUARD_DATABASE"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("PHARMAGUARD_RESOLVER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResolverCacheSize = n
		}
	}
	if v := os.Getenv("PHARMAGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PHARMAGUARD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// HistoryDBPath returns the path to the local assessment history
// database.
func (c *LiteConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
