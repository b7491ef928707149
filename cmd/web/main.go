// cmd/web/main.go
//
// cleanurls front controller – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load configuration (conf/global.yaml + .env + CLEANURLS_ env).
//
//  2. Start the rotating JSON logger (tees to console when running in a TTY).
//
//  3. Build the engine graph: database, resource store, history, cache,
//     static tree, and course-format registry.
//
//  4. Build the chi router: /metrics, component routes, and the static or
//     upstream fallback, all behind the Unclean front controller.
//
//  5. Serve until SIGINT/SIGTERM; SIGHUP reloads configuration in place.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/app"
	"github.com/yanizio/cleanurls/internal/config"
	"github.com/yanizio/cleanurls/internal/logger"
	"github.com/yanizio/cleanurls/internal/routing"
	"github.com/yanizio/cleanurls/internal/server"

	_ "github.com/yanizio/cleanurls/components/api"
	_ "github.com/yanizio/cleanurls/components/events"
	_ "github.com/yanizio/cleanurls/components/webcheck"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sl, err := logger.New(logger.Options{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console || runningInTTY(),
	})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = sl.Sync() }()

	//
	// ── 1.  Engine graph ────────────────────────────────────────────────
	//
	a, err := app.Build(ctx, cfg)
	if err != nil {
		sl.Fatalw("build engine", "err", err)
	}
	defer a.Close()

	//
	// ── 2.  Router ──────────────────────────────────────────────────────
	//
	upstream, err := url.Parse(cfg.HTTP.Upstream)
	if err != nil {
		sl.Fatalw("http.upstream", "err", err)
	}
	h, err := routing.New(routing.Deps{
		Engine:      a.Engine,
		Invalidator: a.Invalidator,
		Upstream:    upstream,
		ForceHTTPS:  cfg.HTTP.ForceHTTPS,
	})
	if err != nil {
		sl.Fatalw("build router", "err", err)
	}

	//
	// ── 3.  SIGHUP → config reload ──────────────────────────────────────
	//
	go reloadOnHUP(ctx)

	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, h)); err != nil {
		sl.Fatalw("http server", "err", err)
	}
}

// reloadOnHUP re-reads configuration on every SIGHUP.  A failed reload
// keeps the previous snapshot.
func reloadOnHUP(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := config.Reload(ctx); err != nil {
				zap.L().Error("config reload failed", zap.Error(err))
				continue
			}
			zap.L().Info("config reloaded", zap.Any("rewrite", config.Get().Rewrite))
		}
	}
}
