package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/cleanurls/internal/component"
	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/invalidate"
	"github.com/yanizio/cleanurls/internal/middleware"
)

// Deps are the collaborators New wires together.
type Deps struct {
	Engine      *engine.Engine
	Invalidator *invalidate.Invalidator
	Upstream    *url.URL
	ForceHTTPS  bool
}

// host implements component.Host.
type host struct{ d Deps }

func (h host) Engine() *engine.Engine               { return h.d.Engine }
func (h host) Invalidator() *invalidate.Invalidator { return h.d.Invalidator }

// New builds the front controller:
//
//	/metrics                 Prometheus
//	component routes         API, sentinel, events (security headers)
//	everything else          static file, or the upstream proxy
//
// Every request passes the Unclean middleware first.
func New(d Deps) (http.Handler, error) {
	env := d.Engine.Env()

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if d.ForceHTTPS && env.WWWRoot != nil {
		site := env.WWWRoot.Host
		if i := strings.IndexByte(site, ':'); i != -1 {
			site = site[:i]
		}
		r.Use(middleware.ForceHTTPS(func(h string) bool { return strings.EqualFold(h, site) }))
	}
	r.Use(Unclean(d.Engine))

	r.Handle("/metrics", promhttp.Handler())

	var err error
	r.Group(func(g chi.Router) {
		g.Use(middleware.Security)
		for _, c := range component.All() {
			if err = c.Init(host{d}); err != nil {
				err = fmt.Errorf("component %s: %w", c.Name(), err)
				return
			}
			err = chi.Walk(c.Routes(), func(method, route string, h http.Handler, mws ...func(http.Handler) http.Handler) error {
				g.With(mws...).Method(method, route, h)
				return nil
			})
			if err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}

	var fallback http.Handler = http.NotFoundHandler()
	if d.Upstream != nil {
		fallback = Upstream(d.Upstream)
	}
	r.NotFound(Static(env.Static, env.MountPath(), fallback).ServeHTTP)
	return r, nil
}
