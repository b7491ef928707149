// internal/routing/frontcontroller.go
//
// Front-controller middleware: clean request → unclean request.
//
// Context
// -------
// Every request that does not name a real file or directory in the static
// tree is passed through the backward transform before routing.  The
// resolved path replaces r.URL.Path and the resolved parameters replace
// the query string, so the components and the upstream proxy only ever see
// unclean URLs.
//
// Workflow
// --------
//   1. Existing directory without trailing slash → 301 to the slashed path.
//   2. Existing file or directory → untouched.
//   3. Otherwise UncleanURL; on change rewrite r.URL and r.RequestURI and
//      remember the original clean path in the request context.
//
// Notes
// -----
// • Paths are compared decoded; RawPath is cleared on rewrite.
// • Every request is counted by action and user-agent class (bot,
//   browser, or other).
// • Oxford commas, two spaces after periods.

package routing

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/metrics"
	"github.com/yanizio/cleanurls/internal/ua"
	"github.com/yanizio/cleanurls/internal/weburl"
)

type ctxKey struct{}

// OriginalURI returns the clean request URI the request arrived with, or ""
// when the front controller did not rewrite it.
func OriginalURI(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Unclean returns middleware that uncleans each request through e.
func Unclean(e *engine.Engine) func(http.Handler) http.Handler {
	env := e.Env()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent := ua.Class(r.UserAgent())
			rel, inMount := env.StripMount(r.URL.Path)

			if inMount && env.Static.IsDir(rel) && !strings.HasSuffix(r.URL.Path, "/") {
				target := r.URL.Path + "/"
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				metrics.FrontRequestsTotal.WithLabelValues(metrics.ActionRedirect, agent).Inc()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}
			if !inMount {
				metrics.FrontRequestsTotal.WithLabelValues(metrics.ActionPassthrough, agent).Inc()
				next.ServeHTTP(w, r)
				return
			}
			if env.Static.Exists(rel) {
				metrics.FrontRequestsTotal.WithLabelValues(metrics.ActionStatic, agent).Inc()
				next.ServeHTTP(w, r)
				return
			}

			in := &weburl.URL{Path: r.URL.Path, Params: weburl.ParseQuery(r.URL.RawQuery)}
			out := e.UncleanURL(r.Context(), in)
			if out == in {
				metrics.FrontRequestsTotal.WithLabelValues(metrics.ActionPassthrough, agent).Inc()
				next.ServeHTTP(w, r)
				return
			}

			original := r.URL.RequestURI()
			rewritten := *r.URL
			rewritten.Path = out.Path
			rewritten.RawPath = ""
			rewritten.RawQuery = out.Params.Encode()

			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, original))
			r.URL = &rewritten
			r.RequestURI = out.RequestURI()

			metrics.FrontRequestsTotal.WithLabelValues(metrics.ActionRewritten, agent).Inc()
			if ce := zap.L().Check(zapcore.DebugLevel, "front controller rewrite"); ce != nil {
				ce.Write(
					zap.String("from", original),
					zap.String("to", r.RequestURI),
					zap.String("agent", agent))
			}
			next.ServeHTTP(w, r)
		})
	}
}
