package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "timevault.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 256, cfg.CacheSize)
}

func TestLoadClient_Env(t *testing.T) {
	t.Setenv("TIMEVAULT_SERVER_URL", "https://vault.example.com")
	t.Setenv("TIMEVAULT_DB", "/tmp/tv.db")
	t.Setenv("TIMEVAULT_SYNC_INTERVAL", "2m")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "https://vault.example.com", cfg.ServerURL)
	assert.Equal(t, "/tmp/tv.db", cfg.DBPath)
	assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
}

func TestLoadServer_RequiredFields(t *testing.T) {
	// Without the required secrets loading fails.
	_, err := LoadServer()
	assert.Error(t, err)

	t.Setenv("TIMEVAULT_JWT_SECRET", "secret")
	t.Setenv("TIMEVAULT_ACCESS_KEY_HASH", "$2a$10$hash")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RateLimit)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}
