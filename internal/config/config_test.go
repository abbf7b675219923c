// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, TransportMemory, cfg.Transport)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRANSPORT", TransportRedis)
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TIKTOK_CLIENT_KEY", "key-123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, TransportRedis, cfg.Transport)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "key-123", cfg.TikTokClientKey)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	t.Setenv("TRANSPORT", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RedisDB)
}
