// internal/cache/cache.go
//
// Two-way URL cache.
//
// Context
// -------
// The cleaner and the uncleaner both memoise their results as raw
// serialized URL strings in two independent namespaces:
//
//   • outgoing - unclean → clean, consulted by the cleaner,
//   • incoming - clean → unclean, consulted by the uncleaner.
//
// Entries carry no TTL; they live until a resource event evicts them (see
// internal/invalidate) or the backend drops them for capacity.  Backends
// implement Store: the in-process LRU in this package, or the shared Redis
// backend in cache/redis.
//
// Notes
// -----
// • Backend errors are logged and treated as misses.  A broken cache must
//   never break a transform.
// • Concurrent writers may race on one key.  Values are deterministic, so
//   last writer wins with no correctness impact.
// • Oxford commas, two spaces after periods.
package cache

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/metrics"
)

// Namespace selects one direction of the cache.
type Namespace string

const (
	Outgoing Namespace = "outgoing"
	Incoming Namespace = "incoming"
)

// ErrMiss is returned by Store.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the backend contract.  Each call touches exactly one key.
type Store interface {
	Get(ctx context.Context, ns Namespace, key string) (string, error)
	Set(ctx context.Context, ns Namespace, key, value string) error
	Delete(ctx context.Context, ns Namespace, key string) error
}

// TwoWay wraps a Store with direction-specific helpers and metrics.  A nil
// *TwoWay, or one built from a nil Store, behaves as an always-empty cache.
type TwoWay struct {
	store Store
}

// NewTwoWay returns a TwoWay over store.
func NewTwoWay(store Store) *TwoWay { return &TwoWay{store: store} }

// Clean returns the cached clean form of an unclean URL.
func (t *TwoWay) Clean(ctx context.Context, unclean string) (string, bool) {
	return t.get(ctx, Outgoing, unclean)
}

// Unclean returns the cached unclean form of a clean URL.
func (t *TwoWay) Unclean(ctx context.Context, clean string) (string, bool) {
	return t.get(ctx, Incoming, clean)
}

// Remember stores the pair in both namespaces.
func (t *TwoWay) Remember(ctx context.Context, unclean, clean string) {
	t.set(ctx, Outgoing, unclean, clean)
	t.set(ctx, Incoming, clean, unclean)
}

// RememberIncoming stores only the clean → unclean direction.  Used by the
// uncleaner, which cannot prove the reverse mapping is canonical.
func (t *TwoWay) RememberIncoming(ctx context.Context, clean, unclean string) {
	t.set(ctx, Incoming, clean, unclean)
}

// Forget evicts the outgoing entry for unclean and the incoming entry that
// points back at it.  Reports whether an outgoing entry existed.
func (t *TwoWay) Forget(ctx context.Context, unclean string) bool {
	if t == nil || t.store == nil {
		return false
	}
	clean, ok := t.get(ctx, Outgoing, unclean)
	t.del(ctx, Outgoing, unclean)
	if ok {
		t.del(ctx, Incoming, clean)
	}
	return ok
}

// ForgetIncoming evicts one incoming entry.
func (t *TwoWay) ForgetIncoming(ctx context.Context, clean string) {
	t.del(ctx, Incoming, clean)
}

func (t *TwoWay) get(ctx context.Context, ns Namespace, key string) (string, bool) {
	if t == nil || t.store == nil {
		return "", false
	}
	v, err := t.store.Get(ctx, ns, key)
	switch {
	case err == nil:
		metrics.CacheRequestsTotal.WithLabelValues(string(ns), "hit").Inc()
		return v, true
	case errors.Is(err, ErrMiss):
		metrics.CacheRequestsTotal.WithLabelValues(string(ns), "miss").Inc()
	default:
		metrics.CacheErrorsTotal.Inc()
		zap.L().Warn("url cache get failed",
			zap.String("namespace", string(ns)), zap.Error(err))
	}
	return "", false
}

func (t *TwoWay) set(ctx context.Context, ns Namespace, key, value string) {
	if t == nil || t.store == nil {
		return
	}
	if err := t.store.Set(ctx, ns, key, value); err != nil {
		metrics.CacheErrorsTotal.Inc()
		zap.L().Warn("url cache set failed",
			zap.String("namespace", string(ns)), zap.Error(err))
	}
}

func (t *TwoWay) del(ctx context.Context, ns Namespace, key string) {
	if t == nil || t.store == nil {
		return
	}
	if err := t.store.Delete(ctx, ns, key); err != nil {
		metrics.CacheErrorsTotal.Inc()
		zap.L().Warn("url cache delete failed",
			zap.String("namespace", string(ns)), zap.Error(err))
	}
}
