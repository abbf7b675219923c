// internal/config/config.go

// Package config loads server configuration from environment variables,
// with a .env file picked up automatically in development.
package config

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Transport names accepted by TRANSPORT.
const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
	TransportNATS   = "nats"
	TransportWS     = "ws"
)

// Config is the full server configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// Transport selects the broadcast backend: memory, redis, nats, ws.
	Transport string

	RedisAddr string
	RedisDB   int
	NATSURL   string
	RelayURL  string

	// CachePath is the sqlite file for the local KV cache. Empty means
	// in-memory only.
	CachePath string

	TikTokClientKey    string
	TikTokClientSecret string
	TikTokRedirectURI  string

	// SessionKeyDir optionally points at ed25519 key files named
	// session.key / session.pub. Empty means ephemeral keys.
	SessionKeyDir string

	LogLevel string
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		Transport: getEnv("TRANSPORT", TransportMemory),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		NATSURL:   getEnv("NATS_URL", "nats://localhost:4222"),
		RelayURL:  getEnv("RELAY_URL", "ws://localhost:8080"),

		CachePath: getEnv("CACHE_PATH", ""),

		TikTokClientKey:    getEnv("TIKTOK_CLIENT_KEY", ""),
		TikTokClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		TikTokRedirectURI:  getEnv("TIKTOK_REDIRECT_URI", ""),

		SessionKeyDir: getEnv("SESSION_KEY_DIR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.Transport {
	case TransportMemory, TransportRedis, TransportNATS, TransportWS:
	default:
		return Config{}, fmt.Errorf("config: unknown TRANSPORT %q", cfg.Transport)
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns the fallback.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// getEnvInt reads an integer environment variable or returns the fallback.
func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
