package rewrite

import (
	"net/url"
	"strings"

	"github.com/yanizio/cleanurls/internal/weburl"
)

// SessionKeyParam marks a URL bound to one session.  Such URLs are never
// rewritten or cached.
const SessionKeyParam = "sesskey"

// bypassPrefixes are mount-relative path prefixes that are never rewritten.
var bypassPrefixes = []string{
	"/admin/",
	"/login/",
	"/auth/",
	"/theme/",
	"/lib/",
}

// Bypassed reports whether a mount-relative path and its parameters must be
// left alone.
func Bypassed(rel string, params weburl.Params) bool {
	if params.Has(SessionKeyParam) {
		return true
	}
	for _, p := range bypassPrefixes {
		if strings.HasPrefix(rel, p) || rel+"/" == p {
			return true
		}
	}
	return false
}

// SafeSegment reports whether s can stand as a single path segment without
// escaping.
func SafeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && url.PathEscape(s) == s
}

// Numeric reports whether s is made only of ASCII digits.
func Numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UsernameSegment reports whether a username may appear in a clean path.
// Numeric names are refused so they cannot be confused with ids.
func UsernameSegment(s string) bool { return SafeSegment(s) && !Numeric(s) }

// ShortnameSegment reports whether a course shortname may appear in a clean
// path.  Shortnames are escaped on output, so only a slash disqualifies one.
func ShortnameSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.Contains(s, "/")
}
