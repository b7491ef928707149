// internal/vault/vault.go
//
// Vault-backed secret references for configuration values.
//
// Context
// -------
// Any config string of the form `vault:<mount>/<path>#<key>` names a key in
// a KV-v2 secret instead of holding the value itself.  The config loader
// walks its string fields after unmarshal and swaps each reference for the
// secret through a Resolver.  Only the database password uses this today;
// the Redis password may as well.
//
// Workflow
// --------
//  1. cli, err := vault.New(ctx)                  // during boot, if any ref exists.
//  2. val, err := cli.Resolve(ctx, "vault:kv/cleanurls/db#password")
//
// Notes
// -----
// • Values are cached per path#key for the client TTL.
// • A background loop renews the token while ctx lives.
// • VAULT_ADDR and VAULT_TOKEN come from the environment.
// • Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// RefPrefix marks a string as a secret reference.
const RefPrefix = "vault:"

// ErrBadRef is returned for malformed references.
var ErrBadRef = errors.New("malformed vault reference")

// Resolver turns a reference into its secret value.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// IsRef reports whether s is a secret reference.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// ParseRef splits "vault:<path>#<key>".
func ParseRef(ref string) (path, key string, err error) {
	body, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("%q: %w", ref, ErrBadRef)
	}
	path, key, ok = strings.Cut(body, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("%q: %w", ref, ErrBadRef)
	}
	return path, key, nil
}

//
// Client
//

// Client is safe for concurrent use.
type Client struct {
	api *vault.Client
	ttl time.Duration

	mu    sync.RWMutex
	cache map[string]cached
}

type cached struct {
	val string
	exp time.Time
}

// New builds a client from the VAULT_* environment and starts token
// renewal.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	c := &Client{api: api, ttl: 10 * time.Minute, cache: map[string]cached{}}
	go c.renewLoop(ctx)
	return c, nil
}

// Resolve implements Resolver.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key)
}

// GetKV fetches one key from a KV-v2 secret, cached for the client TTL.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	canonical := secretPath + "#" + key

	c.mu.RLock()
	if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
		c.mu.RUnlock()
		return cv.val, nil
	}
	c.mu.RUnlock()

	mount, rel, _ := strings.Cut(secretPath, "/")
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}
	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	c.mu.Lock()
	c.cache[canonical] = cached{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return val, nil
}

//
// Token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			zap.L().Warn("vault token renew failed", zap.Error(err))
			sleep(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			sleep(ctx, time.Hour)
			continue
		}

		w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
		if err != nil {
			zap.L().Warn("vault watcher init failed", zap.Error(err))
			sleep(ctx, 30*time.Second)
			continue
		}
		go w.Start()
		c.watch(ctx, w)
	}
}

func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				zap.L().Warn("vault token renewal stopped", zap.Error(err))
			}
			sleep(ctx, 15*time.Second)
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				zap.L().Debug("vault token renewed", zap.Int("ttl", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
