// internal/cache/rediscache/rediscache.go
//
// Redis backend for the two-way URL cache.
//
// Context
// -------
// Several front-controller processes share one cache so an invalidation
// seen by any of them evicts the entry for all.  Keys are laid out as
//
//	<prefix>:<namespace>:<serialized url>
//
// Each operation is a single-key GET, SET, or DEL, which Redis executes
// atomically; no multi-key transactions are needed.
//
// Notes
// -----
// • TTL is optional.  Zero means entries live until evicted by an event or
//   by Redis maxmemory policy.
// • Oxford commas, two spaces after periods.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/cache"
)

// Options configures the backend.
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	Prefix       string
	TTL          time.Duration
}

// Store implements cache.Store on top of a go-redis client.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New dials Redis, pings it, and returns a Store.
func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	zap.L().Info("url cache backend online",
		zap.String("backend", "redis"), zap.String("addr", opts.Addr))
	return NewWithClient(rdb, opts.Prefix, opts.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "cleanurls"
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) key(ns cache.Namespace, key string) string {
	return s.prefix + ":" + string(ns) + ":" + key
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, ns cache.Namespace, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(ns, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrMiss
	}
	return v, err
}

// Set implements cache.Store.
func (s *Store) Set(ctx context.Context, ns cache.Namespace, key, value string) error {
	return s.rdb.Set(ctx, s.key(ns, key), value, s.ttl).Err()
}

// Delete implements cache.Store.
func (s *Store) Delete(ctx context.Context, ns cache.Namespace, key string) error {
	return s.rdb.Del(ctx, s.key(ns, key)).Err()
}

// Purge removes every key under the prefix.  Used by the CLI purge command.
func (s *Store) Purge(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error { return s.rdb.Close() }
