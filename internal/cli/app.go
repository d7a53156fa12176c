// Package cli implements the timevault command tree. Commands consume
// the data layer only through repository contracts; storage adapters,
// the cache, and sync operations stay behind them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/timevault/timevault/internal/cache"
	"github.com/timevault/timevault/internal/config"
	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/repository"
	"github.com/timevault/timevault/internal/storage"
	"github.com/timevault/timevault/internal/storage/boltdb"
	"github.com/timevault/timevault/internal/storage/httpkv"
	"github.com/timevault/timevault/internal/syncengine"
	"github.com/timevault/timevault/internal/validation"
)

// tokenKey stores the bearer token in the local store. It contains no
// colon, so it is never mistaken for an entity key.
const tokenKey = "auth_token"

// App holds the wired data layer. Everything is constructed explicitly
// and passed down; there is no ambient global lookup.
type App struct {
	Logger *slog.Logger
	Config *config.Client

	Local  *boltdb.Storage
	Remote *httpkv.Client
	Cache  *cache.Manager
	Engine *syncengine.Engine

	Activities repository.Repository[*models.Activity]
	Slots      repository.Repository[*models.TimeSlot]
	Settings   repository.Repository[*models.Settings]
}

// NewApp opens the local store and wires adapters, cache, repositories,
// and the sync engine.
func NewApp(ctx context.Context, cfg *config.Client) (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	}))

	local, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	token, err := local.Get(ctx, tokenKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		local.Close()
		return nil, fmt.Errorf("failed to read auth token: %w", err)
	}
	remote := httpkv.New(cfg.ServerURL, string(token))

	cacheManager := cache.NewManager(cfg.CacheSize, cache.DefaultTTL, nil, logger)

	engine, err := syncengine.New(ctx, local, remote, &syncengine.LastWriteWins{}, logger,
		syncengine.Config{Interval: cfg.SyncInterval})
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("failed to restore sync queue: %w", err)
	}

	app := &App{
		Logger: logger,
		Config: cfg,
		Local:  local,
		Remote: remote,
		Cache:  cacheManager,
		Engine: engine,
	}

	app.Activities = validation.Wrap[*models.Activity](
		repository.New(models.KindActivity, local, remote, cacheManager, engine,
			func() *models.Activity { return &models.Activity{} }, logger,
			repository.Options[*models.Activity]{IsNewer: isNewer[*models.Activity]}),
		validation.ActivityRules(), logger)

	app.Slots = validation.Wrap[*models.TimeSlot](
		repository.New(models.KindTimeSlot, local, remote, cacheManager, engine,
			func() *models.TimeSlot { return &models.TimeSlot{} }, logger,
			repository.Options[*models.TimeSlot]{IsNewer: isNewer[*models.TimeSlot]}),
		validation.TimeSlotRules(), logger)

	app.Settings = validation.Wrap[*models.Settings](
		repository.New(models.KindSettings, local, remote, cacheManager, engine,
			func() *models.Settings { return &models.Settings{} }, logger,
			repository.Options[*models.Settings]{IsNewer: isNewer[*models.Settings]}),
		validation.SettingsRules(), logger)

	return app, nil
}

// isNewer compares entities by modification time for tier merges.
func isNewer[T models.Entity](a, b T) bool {
	return a.ModifiedAt().After(b.ModifiedAt())
}

// SaveToken persists the bearer token and applies it to the remote
// adapter.
func (a *App) SaveToken(ctx context.Context, token string) error {
	if err := a.Local.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	a.Remote.SetToken(token)
	return nil
}

// Close releases the app's resources.
func (a *App) Close() {
	a.Cache.StopSweeper()
	a.Engine.Stop()
	if err := a.Local.Close(); err != nil {
		a.Logger.Error("failed to close local database", "error", err)
	}
}
