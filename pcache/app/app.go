// Package app wires configuration into a running payload service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ZanzyTHEbar/payload-cache/pcache/api"
	"github.com/ZanzyTHEbar/payload-cache/pcache/cache"
	"github.com/ZanzyTHEbar/payload-cache/pcache/cache/adapters"
	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
	"github.com/ZanzyTHEbar/payload-cache/pcache/storage/database"
	"github.com/ZanzyTHEbar/payload-cache/pcache/transform"
	"github.com/rs/zerolog"
)

// App holds the wired components of one payload-cache process.
type App struct {
	config  *config.Config
	db      *database.DBManager // nil for the memory driver
	builder *cache.PayloadBuilder
	metrics *cache.MetricsCollector
	logger  zerolog.Logger
}

// New opens the configured store and builds the payload service on top of it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	a := &App{
		config:  cfg,
		metrics: cache.NewMetricsCollector(),
		logger:  logger,
	}

	transformations, payloads, err := a.createStores(ctx)
	if err != nil {
		return nil, err
	}

	tc, err := cache.NewTransformationCache(transformations, transform.Uppercase{},
		cache.WithCacheMetrics(a.metrics),
		cache.WithCacheLogger(logger.With().Str("component", "transformation_cache").Logger()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.builder, err = cache.NewPayloadBuilder(tc, payloads,
		cache.WithTracer(a.createTracer()),
		cache.WithBuilderMetrics(a.metrics),
		cache.WithBuilderLogger(logger.With().Str("component", "payload_builder").Logger()),
		cache.WithConcurrency(cfg.Cache.TransformConcurrency),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Int("transform_concurrency", cfg.Cache.TransformConcurrency).
		Msg("Payload service ready")
	return a, nil
}

func (a *App) createStores(ctx context.Context) (ports.TransformationStore, ports.PayloadStore, error) {
	if a.config.Database.Driver == "memory" {
		return adapters.NewMemoryTransformationStore(), adapters.NewMemoryPayloadStore(), nil
	}

	dm, err := database.NewDBManager(ctx, database.NewConfig(a.config.Database),
		a.logger.With().Str("component", "database").Logger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.db = dm
	return adapters.NewSQLTransformationStore(dm), adapters.NewSQLPayloadStore(dm), nil
}

// createTracer returns nil when logging is disabled, leaving the builder on
// its no-op tracer.
func (a *App) createTracer() ports.Tracer {
	if a.config.Log.Level == "disabled" {
		return nil
	}
	return adapters.NewZerologTracer(a.logger)
}

// Builder returns the payload builder.
func (a *App) Builder() *cache.PayloadBuilder {
	return a.builder
}

// Metrics returns the shared metrics collector.
func (a *App) Metrics() *cache.MetricsCollector {
	return a.metrics
}

// Ping checks the backing store. The memory store is always healthy.
func (a *App) Ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Ping(ctx)
}

// Handler returns the HTTP API for this app.
func (a *App) Handler() (http.Handler, error) {
	return api.NewHandler(api.HandlerConfig{
		Service:        a.builder,
		Pinger:         a,
		Metrics:        a.metrics,
		Logger:         a.logger.With().Str("component", "http").Logger(),
		RequestTimeout: a.config.Server.RequestTimeout,
		MaxBodyBytes:   a.config.Server.MaxBodyBytes,
	})
}

// Server returns an HTTP server for the configured address.
func (a *App) Server() (*api.Server, error) {
	handler, err := a.Handler()
	if err != nil {
		return nil, err
	}
	return api.NewServer(a.config.Server, handler, a.logger), nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
