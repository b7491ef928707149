// internal/config/model.go
//
// Typed configuration model for cleanurls.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `CLEANURLS_`-prefixed environment overrides – highest precedence.
//
// String values of the form `vault:<path>#<key>` are resolved through
// internal/vault after unmarshal, so the rest of the program only ever
// sees plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"time"

	"github.com/yanizio/cleanurls/internal/rewrite"
)

//
// Rewrite switches
//

// Rewrite holds the three switches every transform call reads.
type Rewrite struct {
	Enabled        bool `koanf:"enabled"`
	CleanUsernames bool `koanf:"clean_usernames"`
	CacheDisabled  bool `koanf:"cache_disabled"`
}

//
// Site section
//

// Site locates the application being fronted.
type Site struct {
	WWWRoot string `koanf:"wwwroot" validate:"required,url"`
	DirRoot string `koanf:"dirroot" validate:"required"`
}

//
// HTTP section
//

// HTTP holds front-controller tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	Upstream   string `koanf:"upstream"    validate:"required,url"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.  DSN carries one %s verb
// where the password goes; the password itself usually is a vault ref.
type Database struct {
	DSN          string `koanf:"dsn"            validate:"required"`
	Password     string `koanf:"password"`
	Prefix       string `koanf:"prefix"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
}

//
// Cache section
//

// Redis configures the shared cache backend.
type Redis struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"       validate:"gte=0"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
}

// Cache selects the two-way cache backend.
type Cache struct {
	Backend string `koanf:"backend" validate:"oneof=memory redis"`
	Size    int    `koanf:"size"    validate:"gte=0"`
	Redis   Redis  `koanf:"redis"`
}

//
// History section
//

// History selects the history store.
type History struct {
	Backend      string `koanf:"backend"       validate:"oneof=memory sql"`
	EnsureSchema bool   `koanf:"ensure_schema"`
}

//
// Log section
//

// Log configures internal/logger.
type Log struct {
	Dir     string `koanf:"dir"`
	Level   string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Console bool   `koanf:"console"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.
type Paths struct {
	Root string // CLEANURLS_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	Rewrite  Rewrite  `koanf:"rewrite"`
	Site     Site     `koanf:"site"`
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	History  History  `koanf:"history"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// Settings returns the per-call switch snapshot.
func (c *Config) Settings() rewrite.Settings {
	return rewrite.Settings{
		Enabled:        c.Rewrite.Enabled,
		CleanUsernames: c.Rewrite.CleanUsernames,
		CacheDisabled:  c.Rewrite.CacheDisabled,
	}
}

