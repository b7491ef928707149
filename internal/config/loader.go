// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml` (or the file named by Options.Path).
  3. Environment variables prefixed `CLEANURLS_`, where `__` maps to “.”
     (e.g., `CLEANURLS_REWRITE__ENABLED → rewrite.enabled`).

After merging, the tree is unmarshalled into typed structs, defaults are
filled, `vault:` references are resolved, the result is validated, and it
is cached in an `atomic.Pointer` for lock-free reads.  `Reload()` runs the
same steps with the options of the last successful load and swaps the
pointer only on success.

Instrumentation
---------------
  • DEBUG spans - root discovery, YAML read, env overlay.
  • ERROR spans - YAML parse, env overlay, unmarshal, secret, validation.
  • INFO  span  - final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/vault"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLEANURLS_"

// Options select the file and secret resolver.  Zero value is fine.
type Options struct {
	Path     string         // explicit YAML path; empty means discover
	Resolver vault.Resolver // nil means build a Vault client on demand
}

var (
	current atomic.Pointer[Config]

	lastMu   sync.Mutex
	lastOpts Options
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves CLEANURLS_ROOT or climbs directories until
// conf/global.yaml is found.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads the discovered configuration.
func Load(ctx context.Context) (*Config, error) { return LoadWith(ctx, Options{}) }

// LoadWith reads .env, YAML, env overrides, resolves secrets, validates,
// and caches Config.
func LoadWith(ctx context.Context, o Options) (*Config, error) {
	root := rootDir()
	yamlPath := o.Path
	if yamlPath == "" {
		yamlPath = filepath.Join(root, "conf", "global.yaml")
	} else {
		root = filepath.Dir(filepath.Dir(yamlPath))
	}
	zap.S().Debugw("config root resolved", "root", root, "file", yamlPath)

	_ = godotenv.Load(filepath.Join(filepath.Dir(yamlPath), ".env"))

	k := koanf.New(".")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}
	cfg.Paths.Root = root
	applyDefaults(&cfg)

	if err := resolveSecrets(ctx, &cfg, o.Resolver); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	lastMu.Lock()
	lastOpts = o
	lastMu.Unlock()

	zap.S().Infow("config loaded",
		"wwwroot", cfg.Site.WWWRoot,
		"enabled", cfg.Rewrite.Enabled,
		"clean_usernames", cfg.Rewrite.CleanUsernames,
		"cache", cfg.Cache.Backend,
		"history", cfg.History.Backend,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 10000
	}
	if c.History.Backend == "" {
		c.History.Backend = "sql"
	}
	if c.Database.Prefix == "" {
		c.Database.Prefix = "mdl_"
	}
	if c.Log.Dir == "" && c.Paths.Root != "" {
		c.Log.Dir = filepath.Join(c.Paths.Root, "logs")
	}
}

// resolveSecrets swaps vault references for their values.
func resolveSecrets(ctx context.Context, c *Config, r vault.Resolver) error {
	fields := []*string{&c.Database.Password, &c.Cache.Redis.Password}
	for _, f := range fields {
		if !vault.IsRef(*f) {
			continue
		}
		if r == nil {
			cli, err := sharedVault(ctx)
			if err != nil {
				return err
			}
			r = cli
		}
		val, err := r.Resolve(ctx, *f)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *f, err)
		}
		*f = val
	}
	return nil
}

var (
	vaultOnce sync.Once
	vaultCli  *vault.Client
	vaultErr  error
)

// sharedVault builds one Vault client for the process lifetime.
func sharedVault(ctx context.Context) (*vault.Client, error) {
	vaultOnce.Do(func() {
		vaultCli, vaultErr = vault.New(context.WithoutCancel(ctx))
	})
	return vaultCli, vaultErr
}

// Get returns the live configuration, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload re-reads with the last options.  On error the old config stays.
func Reload(ctx context.Context) error {
	lastMu.Lock()
	o := lastOpts
	lastMu.Unlock()
	_, err := LoadWith(ctx, o)
	return err
}

// DSN returns the database DSN with the password filled in.
func (c *Config) DSN() string {
	if strings.Contains(c.Database.DSN, "%s") {
		return fmt.Sprintf(c.Database.DSN, c.Database.Password)
	}
	return c.Database.DSN
}
