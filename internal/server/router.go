// Package server assembles the remote-tier HTTP service: an
// owner-scoped key-value API with token auth, backed by SQLite.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/timevault/timevault/internal/server/handlers"
	"github.com/timevault/timevault/internal/server/middleware"
	"github.com/timevault/timevault/internal/server/storage"
)

// Options wires a router.
type Options struct {
	Logger        *slog.Logger
	Store         storage.KVStore
	JWTConfig     handlers.JWTConfig
	Owner         string
	AccessKeyHash []byte
	Version       string

	// RateLimit requests per RateWindow per client. Zero disables
	// limiting.
	RateLimit  int
	RateWindow time.Duration
}

// NewRouter builds the full middleware and handler chain.
func NewRouter(opts Options) http.Handler {
	healthHandler := handlers.NewHealthHandler(opts.Logger, opts.Version)
	authHandler := handlers.NewAuthHandler(opts.Logger, opts.JWTConfig, opts.Owner, opts.AccessKeyHash)
	kvHandler := handlers.NewKVHandler(opts.Logger, opts.Store)

	auth := middleware.Auth(opts.Logger, opts.JWTConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/kv", auth(http.HandlerFunc(kvHandler.Keys)))
	mux.Handle("POST /api/v1/kv/clear", auth(http.HandlerFunc(kvHandler.Clear)))
	mux.Handle("GET /api/v1/kv/{key}", auth(http.HandlerFunc(kvHandler.Key)))
	mux.Handle("HEAD /api/v1/kv/{key}", auth(http.HandlerFunc(kvHandler.Key)))
	mux.Handle("PUT /api/v1/kv/{key}", auth(http.HandlerFunc(kvHandler.Key)))
	mux.Handle("DELETE /api/v1/kv/{key}", auth(http.HandlerFunc(kvHandler.Key)))

	var handler http.Handler = mux

	if opts.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimit, opts.RateWindow, opts.Logger)
		handler = limiter.Middleware(handler)
	}

	handler = middleware.Logging(opts.Logger)(handler)
	handler = middleware.Recovery(opts.Logger)(handler)

	return handler
}
