package routing

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/staticfs"
)

// Upstream returns a reverse proxy to the resource server.  The incoming
// Host header is preserved so the site still sees its own name.
func Upstream(target *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Error("upstream request failed",
				zap.String("uri", r.URL.RequestURI()), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}
}

// executable reports whether a static path is handled by the upstream
// rather than served as bytes.
func executable(p string) bool {
	return strings.HasSuffix(p, ".php") || strings.Contains(p, ".php/")
}

// Static serves regular non-executable files from tree and hands
// everything else to fallback.
func Static(tree *staticfs.Tree, mount string, fallback http.Handler) http.Handler {
	files := http.StripPrefix(mount, http.FileServer(tree.FileSystem()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, mount)
		if !executable(rel) && tree.IsFile(rel) {
			files.ServeHTTP(w, r)
			return
		}
		fallback.ServeHTTP(w, r)
	})
}
