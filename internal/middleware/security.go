// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects industry-standard headers on responses the front controller
// produces itself (API, sentinel, and event intake).  Proxied pages keep
// whatever headers the upstream chose:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years + preload)
//   • Content-Security-Policy   –  nothing loads; these are JSON endpoints
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP, because nothing written after
//   the first byte reaches the client.  Handlers may still override them.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

var securityHeaders = [][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
}

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			if h.Get(kv[0]) == "" {
				h.Set(kv[0], kv[1])
			}
		}
		next.ServeHTTP(w, r)
	})
}
