// internal/uncleaner/uncleaner.go
//
// Backward transform: clean URL → unclean URL.
//
// Context
// -------
// The front controller hands every request that does not name a real file
// to Unclean, then dispatches the result to the resource handler.  Unclean
// always returns some URL; when nothing resolves it returns its input and
// the handler answers "not found".
//
// Workflow
// --------
//   1. Leave foreign hosts, paths outside the mount point, bypass prefixes,
//      session-bound URLs, and real static paths untouched.
//   2. With cleaning disabled only the self-test sentinel is resolved.
//   3. Incoming cache.
//   4. Build the tree (tree.go).  If the deepest node resolves and no
//      segments are left over, that is the answer; cache it.
//   5. History record for the exact clean request URI.
//   6. Walk from the deepest node towards the root and take the first
//      node that resolves.  This is a partial answer and is logged.
//   7. Fall back to the input unchanged.
//
// History sits ahead of the partial walk: a link issued before a rename
// names a resource exactly, while a partial walk only names its container.
//
// Notes
// -----
// • Parameters produced by a node win over same-named input parameters;
//   other input parameters follow in their original order.
// • Oxford commas, two spaces after periods.
package uncleaner

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/history"
	"github.com/yanizio/cleanurls/internal/metrics"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Uncleaner applies the backward transform over a shared Env.
type Uncleaner struct {
	env *rewrite.Env
}

// New returns an Uncleaner bound to env.
func New(env *rewrite.Env) *Uncleaner { return &Uncleaner{env: env} }

// Unclean returns the unclean form of u.  The input is never modified.
func (x *Uncleaner) Unclean(ctx context.Context, s *rewrite.Settings, u *weburl.URL) *weburl.URL {
	if s == nil {
		s = &rewrite.Settings{}
	}
	if !x.env.OnSite(u) {
		return u
	}
	rel, ok := x.env.StripMount(u.Path)
	if !ok {
		return u
	}
	if rewrite.Bypassed(rel, u.Params) {
		metrics.UncleanTotal.WithLabelValues(metrics.OutcomeBypassed).Inc()
		return u
	}
	segments := weburl.SplitPath(rel)

	if !s.Enabled {
		if rel == rewrite.SelfTestClean {
			metrics.UncleanTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
			return x.output(u, rewrite.SelfTestUnclean, nil)
		}
		return u
	}
	if len(segments) == 0 || x.env.Static.Exists(rel) {
		metrics.UncleanTotal.WithLabelValues(metrics.OutcomeUnchanged).Inc()
		return u
	}

	key := u.RequestURI()
	if s.Cacheable() {
		if hit, ok := x.env.Cache.Unclean(ctx, key); ok {
			if out, err := rewrite.Carry(u, hit); err == nil {
				metrics.UncleanTotal.WithLabelValues(metrics.OutcomeCached).Inc()
				return out
			}
		}
	}

	r := &run{ctx: ctx, env: x.env, settings: s}
	t := Build(ctx, x.env, s, segments, u.Params)
	leaf := t.Leaf()

	if len(t.Nodes[leaf].SubPath) == 0 {
		if p, ps, ok := table[t.Nodes[leaf].Kind].resolve(r, &t.Nodes[leaf]); ok {
			out := x.output(u, p, ps)
			if s.Cacheable() {
				x.env.Cache.RememberIncoming(ctx, key, out.RequestURI())
			}
			metrics.UncleanTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
			zap.L().Debug("uncleaned", zap.String("from", key), zap.String("to", out.RequestURI()))
			return out
		}
	}

	if out, ok := x.fromHistory(ctx, u, key); ok {
		metrics.UncleanTotal.WithLabelValues(metrics.OutcomeHistory).Inc()
		return out
	}

	for i := leaf; i > 0; i = t.Nodes[i].Parent {
		n := &t.Nodes[i]
		p, ps, ok := table[n.Kind].resolve(r, n)
		if !ok {
			continue
		}
		out := x.output(u, p, ps)
		metrics.UncleanTotal.WithLabelValues(metrics.OutcomePartial).Inc()
		zap.L().Warn("clean url partially resolved",
			zap.String("url", key),
			zap.String("resolved", out.RequestURI()),
			zap.Stringer("node", n.Kind),
			zap.Strings("unconsumed", segments[len(t.Consumed(i)):]))
		return out
	}

	metrics.UncleanTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
	zap.L().Debug("clean url not resolved", zap.String("url", key))
	return u
}

// output builds the result URL from a mount-relative path and node params.
func (x *Uncleaner) output(u *weburl.URL, rel string, ps weburl.Params) *weburl.URL {
	out := u.Clone()
	out.Path = x.env.WithMount(rel)
	merged := ps.Clone()
	for _, kv := range u.Params {
		if !merged.Has(kv.Key) {
			merged = append(merged, kv)
		}
	}
	out.Params = merged
	return out
}

func (x *Uncleaner) fromHistory(ctx context.Context, u *weburl.URL, key string) (*weburl.URL, bool) {
	if x.env.History == nil {
		return nil, false
	}
	rec, err := x.env.History.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			zap.L().Error("history read failed", zap.String("clean", key), zap.Error(err))
		}
		return nil, false
	}
	out, err := rewrite.Carry(u, rec.Unclean)
	if err != nil {
		return nil, false
	}
	zap.L().Info("clean url resolved from history", zap.String("url", key), zap.String("unclean", rec.Unclean))
	return out, true
}
