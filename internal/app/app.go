// Package app wires the converter from configuration. It is the shared
// composition root of the CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"swissgrid-converter/internal/adapters/cache"
	"swissgrid-converter/internal/adapters/gridfile"
	"swissgrid-converter/internal/adapters/projengine"
	"swissgrid-converter/internal/adapters/reframe"
	"swissgrid-converter/internal/config"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/db"
	"swissgrid-converter/internal/ports"
	"swissgrid-converter/internal/services"

	"github.com/redis/go-redis/v9"
)

type App struct {
	Converter *services.Converter
	Grid      ports.GridInfo
	// Pipeline handed to PROJ, for diagnostics.
	Pipeline string

	closers []func() error
}

// EnsureGrid makes the correction grid available as configured.
func EnsureGrid(ctx context.Context, cfg config.Config) (ports.GridInfo, error) {
	loc, err := gridfile.NewLocator(gridfile.Options{
		Name:       cfg.GridName,
		URL:        cfg.GridURL,
		Dir:        cfg.GridDir,
		SearchPath: cfg.SearchPath,
		Download:   cfg.GridDownload,
	}, nil)
	if err != nil {
		return ports.GridInfo{}, err
	}
	return loc.Ensure(ctx)
}

// New prepares the correction grid, the PROJ pipeline, the optional cache
// and the REFRAME client. The grid is resolved before any conversion runs.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Grid, err = EnsureGrid(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	engine, err := projengine.New(domain.LV03Definition.WithGrid(a.Grid.Path), domain.WGS84Definition, a.Grid.Path)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}
	a.closers = append(a.closers, engine.Close)
	a.Pipeline = engine.Definition()
	log.Printf("proj engine version=%s pipeline=%q", projengine.Version(), a.Pipeline)

	conversionCache, closeCache, err := OpenCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}
	if closeCache != nil {
		a.closers = append(a.closers, closeCache)
	}

	opts := reframe.Options{
		Endpoints: map[domain.Direction]string{
			domain.WGS84ToLV03: cfg.WGS84ToLV03URL,
			domain.LV03ToWGS84: cfg.LV03ToWGS84URL,
		},
		Parallelism: cfg.Parallelism,
		RateLimit:   cfg.RateLimit,
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     cfg.Timeout,
		Cache:       conversionCache,
	}
	remote, err := reframe.NewClient(opts, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	a.Converter, err = services.NewConverter(engine, remote, services.WithGridInfo(a.Grid))
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	return a, nil
}

// OpenCache opens the configured conversion cache backend.
// Both return values are nil for CACHE_BACKEND=none.
func OpenCache(ctx context.Context, cfg config.Config) (ports.ConversionCache, func() error, error) {
	switch cfg.CacheBackend {
	case "", "none":
		return nil, nil, nil
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSqliteConversionCache(conn), conn.Close, nil
	case "postgres":
		conn, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewSQLConversionCache(conn), conn.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("open redis cache %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisConversionCache(client, cfg.CacheTTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("open cache: unknown backend %q", cfg.CacheBackend)
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
