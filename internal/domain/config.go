package domain

import "time"

// Config is the complete application configuration, populated by the
// config manager from file, environment, and defaults.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Knowledge   KnowledgeConfig `mapstructure:"knowledge"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	OCR         OCRConfig       `mapstructure:"ocr"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Cache       CacheConfig     `mapstructure:"cache"`
	History     HistoryConfig   `mapstructure:"history"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// KnowledgeConfig points at the knowledge base data files.
type KnowledgeConfig struct {
	AliasTablePath string `mapstructure:"alias_table_path"`
	DatabasePath   string `mapstructure:"database_path"`
}

// ResolverConfig tunes the drug name resolver.
type ResolverConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// OCRConfig holds settings for the external OCR service client.
type OCRConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RateLimit     int           `mapstructure:"rate_limit"`
	MinConfidence float64       `mapstructure:"min_confidence"`
}

// DatabaseConfig holds PostgreSQL connection settings for the
// assessment repository. Disabled when Host is empty.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig holds Redis settings for the assessment result cache.
// Disabled when RedisURL is empty.
type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	PoolSize   int           `mapstructure:"pool_size"`
}

// HistoryConfig holds the local SQLite history store settings.
// Disabled when Path is empty.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
