// internal/rewrite/env.go
//
// Shared environment for the forward and backward transforms.
//
// Context
// -------
// Both transforms need the same collaborators (resource store, two-way
// cache, history, static tree, format registry) and the same view of the
// site's mount point.  Env bundles them; it is built once at startup and
// read-only afterwards.
//
// Settings is the per-call switch set.  Callers take one snapshot of the
// live configuration per transform and pass it by pointer, so a config
// reload never changes behaviour half-way through a call.
//
// Notes
// -----
// • The mount prefix is the path of wwwroot, e.g. "/lms" for
//   https://example.com/lms.  Empty for a site served at the host root.
// • Oxford commas, two spaces after periods.
package rewrite

import (
	"strings"

	"github.com/yanizio/cleanurls/internal/cache"
	"github.com/yanizio/cleanurls/internal/format"
	"github.com/yanizio/cleanurls/internal/history"
	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/staticfs"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Self-test sentinel pair.  The unclean form is always rewritten to the
// clean form, whatever the settings say.
const (
	SelfTestUnclean = "/local/cleanurls/tests/webcheck.php"
	SelfTestClean   = "/local/cleanurls/webcheck"
)

// SelfTestSegments is the clean sentinel split into segments.
var SelfTestSegments = [3]string{"local", "cleanurls", "webcheck"}

// Settings are the three switches read once per transform call.
type Settings struct {
	Enabled        bool
	CleanUsernames bool
	CacheDisabled  bool
}

// Env bundles the transform collaborators.
type Env struct {
	WWWRoot   *weburl.URL
	Resources resource.Store
	Cache     *cache.TwoWay
	History   history.Store
	Static    *staticfs.Tree
	Formats   *format.Registry
}

// MountPath returns wwwroot's path without a trailing slash.
func (e *Env) MountPath() string {
	if e == nil || e.WWWRoot == nil {
		return ""
	}
	return strings.TrimRight(e.WWWRoot.Path, "/")
}

// OnSite reports whether u is relative or points at wwwroot's host.
func (e *Env) OnSite(u *weburl.URL) bool {
	if !u.IsAbsolute() || e == nil || e.WWWRoot == nil || e.WWWRoot.Host == "" {
		return true
	}
	return strings.EqualFold(u.Host, e.WWWRoot.Host)
}

// StripMount removes the mount prefix from p.  ok is false when p lies
// outside the mount point.
func (e *Env) StripMount(p string) (rel string, ok bool) {
	mount := e.MountPath()
	if mount == "" {
		if p == "" {
			return "/", true
		}
		return p, true
	}
	switch {
	case p == mount:
		return "/", true
	case strings.HasPrefix(p, mount+"/"):
		return p[len(mount):], true
	}
	return p, false
}

// WithMount prefixes p with the mount path.
func (e *Env) WithMount(p string) string { return e.MountPath() + p }

// Cacheable reports whether the cache may be used under s.
func (s *Settings) Cacheable() bool { return s == nil || !s.CacheDisabled }

// Carry parses a cached request URI and gives it u's scheme, host, and
// fragment.
func Carry(u *weburl.URL, requestURI string) (*weburl.URL, error) {
	out, err := weburl.Parse(requestURI)
	if err != nil {
		return nil, err
	}
	out.Scheme, out.Host, out.Fragment = u.Scheme, u.Host, u.Fragment
	return out, nil
}
