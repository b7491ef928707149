// internal/cleaner/cleaner.go
//
// Forward transform: unclean URL → clean URL.
//
// Context
// -------
// Every link a resource handler emits passes through Clean before it is
// rendered.  Clean never fails; a URL no rule understands comes back as
// given.
//
// Workflow
// --------
//   1. Leave foreign hosts, paths outside the mount point, bypass prefixes,
//      and session-bound URLs untouched.  These are never cached.
//   2. Rewrite the self-test sentinel, whatever the settings say.
//   3. Stop if cleaning is disabled; otherwise consult the outgoing cache.
//   4. Strip the mount prefix and a trailing "/index.php".
//   5. Fire the first matching rule (see rules.go).
//   6. Drop the rule's output if it collides with a static file.
//   7. If the path changed, re-prefix, cache both directions, record
//      history, and return.
//
// Notes
// -----
// • Cache keys are request URIs (path and query, mount included).  Scheme,
//   host, and fragment are carried over from the input on the way out.
// • Oxford commas, two spaces after periods.
package cleaner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/metrics"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Cleaner applies the forward transform over a shared Env.
type Cleaner struct {
	env *rewrite.Env
}

// New returns a Cleaner bound to env.
func New(env *rewrite.Env) *Cleaner { return &Cleaner{env: env} }

// Clean returns the clean form of u, or u itself when nothing applies.  The
// input is never modified.
func (c *Cleaner) Clean(ctx context.Context, s *rewrite.Settings, u *weburl.URL) *weburl.URL {
	if s == nil {
		s = &rewrite.Settings{}
	}
	if !c.env.OnSite(u) {
		return u
	}
	rel, ok := c.env.StripMount(u.Path)
	if !ok {
		return u
	}
	if rewrite.Bypassed(rel, u.Params) {
		metrics.CleanTotal.WithLabelValues(metrics.OutcomeBypassed).Inc()
		return u
	}

	if rel == rewrite.SelfTestUnclean {
		out := u.Clone()
		out.Path = c.env.WithMount(rewrite.SelfTestClean)
		metrics.CleanTotal.WithLabelValues(metrics.OutcomeRewritten).Inc()
		return out
	}
	if !s.Enabled {
		return u
	}

	key := u.RequestURI()
	if s.Cacheable() {
		if hit, ok := c.env.Cache.Clean(ctx, key); ok {
			if out, err := rewrite.Carry(u, hit); err == nil {
				metrics.CleanTotal.WithLabelValues(metrics.OutcomeCached).Inc()
				return out
			}
		}
	}

	base := stripIndex(rel)
	st := &state{
		ctx:      ctx,
		env:      c.env,
		settings: s,
		path:     base,
		params:   u.Params.Clone(),
	}
	path, params := base, u.Params
	if cand, fired := st.apply(); fired {
		if c.env.Static.Exists(cand) {
			metrics.CleanTotal.WithLabelValues(metrics.OutcomeCollision).Inc()
			zap.L().Debug("clean rule collides with static content",
				zap.String("url", key), zap.String("candidate", cand))
		} else {
			path, params = cand, st.params
		}
	}

	if path == rel {
		metrics.CleanTotal.WithLabelValues(metrics.OutcomeUnchanged).Inc()
		return u
	}

	out := u.Clone()
	out.Path = c.env.WithMount(path)
	out.Params = params.Clone()

	cleanURI := out.RequestURI()
	if s.Cacheable() {
		c.env.Cache.Remember(ctx, key, cleanURI)
	}
	if c.env.History != nil {
		if err := c.env.History.Put(ctx, cleanURI, key); err != nil {
			zap.L().Error("history write failed", zap.String("clean", cleanURI), zap.Error(err))
		} else {
			metrics.HistoryWritesTotal.Inc()
		}
	}

	metrics.CleanTotal.WithLabelValues(metrics.OutcomeRewritten).Inc()
	zap.L().Debug("cleaned", zap.String("from", key), zap.String("to", cleanURI))
	return out
}

// stripIndex reduces ".../index.php" to its directory form.
func stripIndex(p string) string {
	if strings.HasSuffix(p, "/index.php") {
		return strings.TrimSuffix(p, "index.php")
	}
	return p
}
