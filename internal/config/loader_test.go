package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
rewrite:
  enabled: true
  clean_usernames: false
site:
  wwwroot: https://example.com/lms
  dirroot: /var/www/lms
http:
  listen_addr: 127.0.0.1:8080
  upstream: http://127.0.0.1:9000
database:
  dsn: "lms:%s@tcp(db:3306)/lms"
  password: "vault:kv/cleanurls/db#password"
cache:
  backend: memory
`

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	return f[ref], nil
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, "global.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadWith(t *testing.T) {
	p := writeConf(t, sampleYAML)
	t.Setenv("CLEANURLS_REWRITE__CLEAN_USERNAMES", "true")

	cfg, err := LoadWith(context.Background(), Options{
		Path:     p,
		Resolver: fakeResolver{"vault:kv/cleanurls/db#password": "s3cr3t"},
	})
	require.NoError(t, err)

	assert.True(t, cfg.Rewrite.Enabled)
	assert.True(t, cfg.Rewrite.CleanUsernames, "env overlay wins")
	assert.Equal(t, "s3cr3t", cfg.Database.Password)
	assert.Equal(t, "lms:s3cr3t@tcp(db:3306)/lms", cfg.DSN())
	assert.Equal(t, "mdl_", cfg.Database.Prefix)
	assert.Equal(t, "sql", cfg.History.Backend)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, filepath.Dir(filepath.Dir(p)), cfg.Paths.Root)
	assert.Same(t, cfg, Get())

	s := cfg.Settings()
	assert.True(t, s.Enabled)
	assert.False(t, s.CacheDisabled)
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	p := writeConf(t, sampleYAML+"  redis:\n    db: 1\n")
	t.Setenv("CLEANURLS_CACHE__BACKEND", "redis")

	_, err := LoadWith(context.Background(), Options{Path: p, Resolver: fakeResolver{}})
	assert.Error(t, err)
}

func TestLoadRejectsMissingSite(t *testing.T) {
	p := writeConf(t, "http:\n  upstream: http://127.0.0.1:9000\ndatabase:\n  dsn: x\n")
	_, err := LoadWith(context.Background(), Options{Path: p})
	assert.Error(t, err)
}

func TestReloadKeepsOldConfigOnError(t *testing.T) {
	p := writeConf(t, sampleYAML)
	opts := Options{Path: p, Resolver: fakeResolver{}}
	first, err := LoadWith(context.Background(), opts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("rewrite: [broken"), 0o644))
	assert.Error(t, Reload(context.Background()))
	assert.Same(t, first, Get())
}
