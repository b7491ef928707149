// components/api/api.go
//
// Clean/unclean API component.
//
// Resource handlers that render links, and operators debugging a mapping,
// ask the engine directly:
//
//	GET /api/clean?url=/course/view.php?id=7    → {"in": …, "out": "/course/shortname"}
//	GET /api/unclean?url=/course/shortname      → {"in": …, "out": "/course/view.php?name=shortname"}
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/component"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	host component.Host
}

func init() { component.Register(&Comp{}) }

func (c *Comp) Name() string { return "api" }

func (c *Comp) Init(h component.Host) error {
	c.host = h
	return nil
}

// Result is the JSON body of both endpoints.
type Result struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/clean", c.transform(func(ctx context.Context, s string) string {
		return c.host.Engine().Clean(ctx, s)
	}))
	r.Get("/api/unclean", c.transform(func(ctx context.Context, s string) string {
		return c.host.Engine().Unclean(ctx, s)
	}))
	return r
}

func (c *Comp) transform(fn func(context.Context, string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := r.URL.Query().Get("url")
		if in == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Result{In: in, Out: fn(r.Context(), in)}); err != nil {
			zap.L().Warn("api response write failed", zap.Error(err))
		}
	}
}
