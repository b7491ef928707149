// internal/engine/engine.go
//
// Public face of the URL engine.
//
// Context
// -------
// Callers outside the transform packages (front controller, API handlers,
// CLI) should not juggle a Cleaner, an Uncleaner, and a settings snapshot
// separately.  Engine pairs both directions over one Env and takes a fresh
// Settings snapshot from its source on every call, so a config reload
// applies from the next call on and never in the middle of one.
//
// Notes
// -----
// • String variants never fail: an unparsable input comes back as given.
// • Oxford commas, two spaces after periods.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/cleaner"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/uncleaner"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Settings are the per-call switches.
type Settings = rewrite.Settings

// SettingsFunc returns the current settings.  Called once per transform.
type SettingsFunc func() Settings

// Static returns a SettingsFunc that always yields s.
func Static(s Settings) SettingsFunc { return func() Settings { return s } }

// Engine runs both transforms.
type Engine struct {
	env       *rewrite.Env
	settings  SettingsFunc
	cleaner   *cleaner.Cleaner
	uncleaner *uncleaner.Uncleaner
}

// New returns an Engine over env.  A nil settings source means everything
// off.
func New(env *rewrite.Env, settings SettingsFunc) *Engine {
	if settings == nil {
		settings = Static(Settings{})
	}
	return &Engine{
		env:       env,
		settings:  settings,
		cleaner:   cleaner.New(env),
		uncleaner: uncleaner.New(env),
	}
}

// Env exposes the shared collaborators.
func (e *Engine) Env() *rewrite.Env { return e.env }

// Settings returns a fresh snapshot.
func (e *Engine) Settings() Settings { return e.settings() }

// CleanURL returns the clean form of u.
func (e *Engine) CleanURL(ctx context.Context, u *weburl.URL) *weburl.URL {
	s := e.settings()
	return e.cleaner.Clean(ctx, &s, u)
}

// UncleanURL returns the unclean form of u.
func (e *Engine) UncleanURL(ctx context.Context, u *weburl.URL) *weburl.URL {
	s := e.settings()
	return e.uncleaner.Unclean(ctx, &s, u)
}

// Clean is CleanURL on strings.
func (e *Engine) Clean(ctx context.Context, raw string) string {
	u, err := weburl.Parse(raw)
	if err != nil {
		zap.L().Debug("clean: unparsable url", zap.String("url", raw), zap.Error(err))
		return raw
	}
	return e.CleanURL(ctx, u).String()
}

// Unclean is UncleanURL on strings.
func (e *Engine) Unclean(ctx context.Context, raw string) string {
	u, err := weburl.Parse(raw)
	if err != nil {
		zap.L().Debug("unclean: unparsable url", zap.String("url", raw), zap.Error(err))
		return raw
	}
	return e.UncleanURL(ctx, u).String()
}
