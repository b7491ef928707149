// components/webcheck/webcheck.go
//
// Self-test sentinel component.
//
// Context
// -------
// `cleanurls check` probes a live deployment by requesting the sentinel in
// both forms.  The clean form only reaches this handler if the front
// controller uncleaned it, so a 200 from the clean form proves the rewrite
// path is wired.  The body echoes what arrived:
//
//	{"status":"ok","path":"/local/cleanurls/tests/webcheck.php",
//	 "pathinfo":"","params":{"a":"b"},"enabled":true}
//
// Notes
// -----
// • Slash arguments (…/webcheck.php/extra/args) arrive as pathinfo.
// • Oxford commas, two spaces after periods.
package webcheck

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/component"
	"github.com/yanizio/cleanurls/internal/rewrite"
)

var _ component.Component = (*Comp)(nil)

type Comp struct {
	host component.Host
}

func init() { component.Register(&Comp{}) }

func (c *Comp) Name() string { return "webcheck" }

func (c *Comp) Init(h component.Host) error {
	c.host = h
	return nil
}

// Report is the sentinel response body.
type Report struct {
	Status   string            `json:"status"`
	Path     string            `json:"path"`
	PathInfo string            `json:"pathinfo"`
	Params   map[string]string `json:"params"`
	Enabled  bool              `json:"enabled"`
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	mount := c.host.Engine().Env().MountPath()
	r.Get(mount+rewrite.SelfTestUnclean, c.report)
	r.Get(mount+rewrite.SelfTestUnclean+"/*", c.report)
	return r
}

func (c *Comp) report(w http.ResponseWriter, r *http.Request) {
	mount := c.host.Engine().Env().MountPath()
	path := r.URL.Path
	info := strings.TrimPrefix(path, mount+rewrite.SelfTestUnclean)
	if info != "" {
		path = mount + rewrite.SelfTestUnclean
	}

	params := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[len(vs)-1]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	err := json.NewEncoder(w).Encode(Report{
		Status:   "ok",
		Path:     path,
		PathInfo: info,
		Params:   params,
		Enabled:  c.host.Engine().Settings().Enabled,
	})
	if err != nil {
		zap.L().Warn("webcheck response write failed", zap.Error(err))
	}
}
