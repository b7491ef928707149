// internal/weburl/url.go
//
// URL value type shared by the cleaner and the uncleaner.
//
// Context
// -------
// Both directions of the transform work on the same shape: an optional
// scheme and host, a slash-separated path, an ordered list of query
// parameters with unique keys, and an optional fragment.  The "ugly" form
// (`/course/view.php?id=7`) and the "pretty" form (`/course/shortname`)
// serialize identically; they differ only in path shape, so one Go type
// serves both.
//
// net/url is used for splitting and escaping, but url.Values is not used
// for the query because it loses key order, and the cache is keyed by the
// serialized string.
//
// Notes
// -----
// • Path is stored decoded; String() re-escapes it.
// • Oxford commas, two spaces after periods.
package weburl

import (
	"net/url"
	"strings"
)

// URL is an absolute or root-relative URL with ordered parameters.
type URL struct {
	Scheme   string
	Host     string
	Path     string
	Params   Params
	Fragment string
}

// Parse splits raw into a URL.  Relative inputs keep an empty Scheme and
// Host.  A path without a leading slash is treated as root-relative.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	p := u.Path
	if p == "" && u.Host == "" && u.Opaque != "" {
		p = u.Opaque
	}
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &URL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     p,
		Params:   ParseQuery(u.RawQuery),
		Fragment: u.Fragment,
	}, nil
}

// MustParse is Parse for literals in tests and tables.  Panics on error.
func MustParse(raw string) *URL {
	u, err := Parse(raw)
	if err != nil {
		panic("weburl: " + err.Error())
	}
	return u
}

// IsAbsolute reports whether the URL carries a host.
func (u *URL) IsAbsolute() bool { return u.Host != "" }

// Clone returns a deep copy.
func (u *URL) Clone() *URL {
	c := *u
	c.Params = u.Params.Clone()
	return &c
}

// String serializes the URL.  Keys and values are query-escaped, the path is
// escaped segment by segment.
func (u *URL) String() string {
	var b strings.Builder
	if u.Host != "" {
		if u.Scheme != "" {
			b.WriteString(u.Scheme)
			b.WriteString(":")
		}
		b.WriteString("//")
		b.WriteString(u.Host)
	}
	b.WriteString(EscapePath(u.Path))
	if q := u.Params.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(u.Fragment))
	}
	return b.String()
}

// RequestURI returns the path and query only.
func (u *URL) RequestURI() string {
	r := EscapePath(u.Path)
	if r == "" {
		r = "/"
	}
	if q := u.Params.Encode(); q != "" {
		r += "?" + q
	}
	return r
}

// Segments returns the non-empty path segments.
func (u *URL) Segments() []string { return SplitPath(u.Path) }

// SplitPath returns the non-empty segments of p.
func SplitPath(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EscapePath escapes each segment of a decoded path and keeps slashes.
func EscapePath(p string) string {
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
