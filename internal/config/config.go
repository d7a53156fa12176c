// Package config loads client and server configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Client configures the timevault CLI.
type Client struct {
	ServerURL    string        `env:"TIMEVAULT_SERVER_URL" envDefault:"http://localhost:8080"`
	DBPath       string        `env:"TIMEVAULT_DB" envDefault:"timevault.db"`
	LogLevel     string        `env:"TIMEVAULT_LOG_LEVEL" envDefault:"info"`
	SyncInterval time.Duration `env:"TIMEVAULT_SYNC_INTERVAL" envDefault:"30s"`
	CacheSize    int           `env:"TIMEVAULT_CACHE_SIZE" envDefault:"256"`
}

// Server configures the timevault server.
type Server struct {
	Addr          string        `env:"TIMEVAULT_ADDR" envDefault:":8080"`
	DBPath        string        `env:"TIMEVAULT_SERVER_DB" envDefault:"timevault-server.db"`
	JWTSecret     string        `env:"TIMEVAULT_JWT_SECRET,required"`
	Owner         string        `env:"TIMEVAULT_OWNER" envDefault:"default"`
	AccessKeyHash string        `env:"TIMEVAULT_ACCESS_KEY_HASH,required"`
	LogLevel      string        `env:"TIMEVAULT_LOG_LEVEL" envDefault:"info"`
	TokenTTL      time.Duration `env:"TIMEVAULT_TOKEN_TTL" envDefault:"24h"`
	RateLimit     int           `env:"TIMEVAULT_RATE_LIMIT" envDefault:"120"`
	RateWindow    time.Duration `env:"TIMEVAULT_RATE_WINDOW" envDefault:"1m"`
}

// LoadClient parses client configuration from the environment.
func LoadClient() (*Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return &cfg, nil
}

// LoadServer parses server configuration from the environment.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	return &cfg, nil
}

// ParseLevel maps a config level string to a slog level; unknown
// strings fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
