package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// без ./config/config.yaml работают значения по умолчанию
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	v, err := LoadConfig()
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "fail", cfg.Pipeline.UnknownOperation)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)
	assert.True(t, cfg.Engine.CacheEnabled)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8080"
pipeline:
  unknown_operation: skip
kafka:
  brokers: [a:1, b:2]
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STORAGE_BACKEND", "s3")

	v, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "skip", cfg.Pipeline.UnknownOperation)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "s3", cfg.Storage.Backend)
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}
