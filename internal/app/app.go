// internal/app/app.go
//
// Process wiring shared by cmd/web and cmd/cleanurls.
//
// Context
// -------
// Both binaries need the same object graph built from one *config.Config:
//
//   database pool → resource store, history store
//   cache backend → two-way cache
//   dirroot       → static tree
//   all of it     → rewrite.Env → engine.Engine, invalidate.Invalidator
//
// Build assembles it once; Close releases the pool and the Redis client.
//
// Notes
// -----
// • Settings are read through config.Get() on every call, so a SIGHUP
//   reload flips the switches without rebuilding anything here.
// • Oxford commas, two spaces after periods.

package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/cache"
	"github.com/yanizio/cleanurls/internal/cache/rediscache"
	"github.com/yanizio/cleanurls/internal/config"
	"github.com/yanizio/cleanurls/internal/database"
	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/format"
	"github.com/yanizio/cleanurls/internal/history"
	"github.com/yanizio/cleanurls/internal/invalidate"
	"github.com/yanizio/cleanurls/internal/resource/sqlstore"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/staticfs"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Purger empties a cache backend.
type Purger interface {
	Purge(ctx context.Context) error
}

// App is the assembled process graph.
type App struct {
	Env         *rewrite.Env
	Engine      *engine.Engine
	Invalidator *invalidate.Invalidator
	Cache       Purger

	db      *sqlx.DB
	closers []func() error
}

// Build wires every collaborator from cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	root, err := weburl.Parse(cfg.Site.WWWRoot)
	if err != nil {
		return nil, fmt.Errorf("site.wwwroot: %w", err)
	}

	opts := database.DefaultOptions
	if cfg.Database.MaxOpenConns > 0 {
		opts.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		opts.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	db, err := database.OpenWithOptions(ctx, cfg.DSN(), opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &App{db: db, closers: []func() error{db.Close}}

	hist, err := a.history(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	store, err := a.cache(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Env = &rewrite.Env{
		WWWRoot:   root,
		Resources: sqlstore.New(db, cfg.Database.Prefix),
		Cache:     cache.NewTwoWay(store),
		History:   hist,
		Static:    staticfs.NewOS(cfg.Site.DirRoot),
		Formats:   format.Default,
	}
	a.Engine = engine.New(a.Env, Settings)
	a.Invalidator = invalidate.New(a.Env)

	zap.L().Info("engine ready",
		zap.String("wwwroot", cfg.Site.WWWRoot),
		zap.String("dirroot", cfg.Site.DirRoot),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("history", cfg.History.Backend))
	return a, nil
}

// Settings reads the current switch snapshot from the live config.
func Settings() rewrite.Settings {
	if c := config.Get(); c != nil {
		return c.Settings()
	}
	return rewrite.Settings{}
}

func (a *App) history(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.History.Backend == "memory" {
		return history.NewMemory(), nil
	}
	h := history.NewSQL(a.db, cfg.Database.Prefix)
	if cfg.History.EnsureSchema {
		if err := h.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("history schema: %w", err)
		}
	}
	return h, nil
}

func (a *App) cache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend != "redis" {
		lru := cache.NewLRU(cfg.Cache.Size)
		a.Cache = lru
		return lru, nil
	}
	r := cfg.Cache.Redis
	rs, err := rediscache.New(ctx, rediscache.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
		TTL:      r.TTL,
	})
	if err != nil {
		return nil, err
	}
	a.Cache = rs
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

// Close releases every pooled resource.  Safe to call more than once.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
