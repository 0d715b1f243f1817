package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "data/alias_table.json", cfg.AliasTablePath)
	assert.Equal(t, "data/pgx_database.json", cfg.DatabasePath)
	assert.Equal(t, 4096, cfg.ResolverCacheSize)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 4096, cfg.ResolverCacheSize)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("PHARMAGUARD_DATA_DIR", "/tmp/test-pgx")
	os.Setenv("PHARMAGUARD_ALIAS_TABLE", "/etc/pgx/aliases.json")
	os.Setenv("PHARMAGUARD_DATABASE", "/etc/pgx/db.json")
	os.Setenv("PHARMAGUARD_RESOLVER_CACHE_SIZE", "512")
	os.Setenv("PHARMAGUARD_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-pgx", cfg.DataDir)
	assert.Equal(t, "/etc/pgx/aliases.json", cfg.AliasTablePath)
	assert.Equal(t, "/etc/pgx/db.json", cfg.DatabasePath)
	assert.Equal(t, 512, cfg.ResolverCacheSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_InvalidCacheSizeIgnored(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("PHARMAGUARD_RESOLVER_CACHE_SIZE", "not-a-number")
	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, 4096, cfg.ResolverCacheSize)
}

func TestLiteConfig_HistoryDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.pgx-risk-engine"}

	path := cfg.HistoryDBPath()

	assert.Equal(t, "/home/user/.pgx-risk-engine/history.db", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "pgx")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"PHARMAGUARD_DATA_DIR",
		"PHARMAGUARD_ALIAS_TABLE",
		"PHARMAGUARD_DATABASE",
		"PHARMAGUARD_RESOLVER_CACHE_SIZE",
		"PHARMAGUARD_LOG_LEVEL",
		"PHARMAGUARD_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
