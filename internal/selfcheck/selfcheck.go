// internal/selfcheck/selfcheck.go
//
// Live deployment check.
//
// Context
// -------
// The engine only works when the web server in front of it hands every
// unknown path to the front controller and leaves real files alone.  None
// of that is visible from inside the process, so this package drives a
// fixed battery of requests against a running deployment and reports one
// Result per scenario:
//
//   1. static file untouched        – a real file is served, not rewritten
//   2. directory trailing slash     – a real directory redirects to "dir/"
//   3. raw sentinel                 – the unclean sentinel answers directly
//   4. clean sentinel, no params    – the clean sentinel reaches the handler
//   5. simple params                – query parameters survive the rewrite
//   6. encoded params               – reserved characters survive too
//   7. slash arguments              – "script.php/a/b" is passed through
//   8. configuration probe          – the sentinel reports cleaning enabled
//
// Notes
// -----
// • Redirects are never followed; scenario 2 inspects the 301 itself.
// • Scenarios run in order and independently; one failure does not stop
//   the rest.
// • Oxford commas, two spaces after periods.

package selfcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/rewrite"
)

// Result is the outcome of one scenario.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// Options tunes the battery for a deployment.  Paths are relative to the
// site root.
type Options struct {
	StaticFile string
	Dir        string
	Client     *http.Client
}

const (
	DefaultStaticFile = "/local/cleanurls/README.md"
	DefaultDir        = "/local/cleanurls"
)

// Checker runs the battery against one site.
type Checker struct {
	base   *url.URL
	mount  string
	opts   Options
	client *http.Client
}

type report struct {
	Status   string            `json:"status"`
	Path     string            `json:"path"`
	PathInfo string            `json:"pathinfo"`
	Params   map[string]string `json:"params"`
	Enabled  bool              `json:"enabled"`
}

// New validates wwwroot and returns a Checker.
func New(wwwroot string, o Options) (*Checker, error) {
	u, err := url.Parse(wwwroot)
	if err != nil {
		return nil, fmt.Errorf("selfcheck: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("selfcheck: %q is not an absolute http(s) URL", wwwroot)
	}
	if o.StaticFile == "" {
		o.StaticFile = DefaultStaticFile
	}
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	// never follow redirects
	noFollow := *client
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Checker{
		base:   u,
		mount:  strings.TrimRight(u.Path, "/"),
		opts:   o,
		client: &noFollow,
	}, nil
}

// Passed reports whether every result is OK.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

// Run executes every scenario in order.
func (c *Checker) Run(ctx context.Context) []Result {
	scenarios := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"static file untouched", c.staticFile},
		{"directory trailing slash", c.directory},
		{"raw sentinel", c.rawSentinel},
		{"clean sentinel, no params", c.cleanSentinel},
		{"simple params", c.simpleParams},
		{"encoded params", c.encodedParams},
		{"slash arguments", c.slashArguments},
		{"configuration probe", c.configProbe},
	}

	out := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		res := Result{Name: s.name, OK: true}
		if err := s.fn(ctx); err != nil {
			res.OK, res.Detail = false, err.Error()
			zap.L().Warn("self check failed", zap.String("scenario", s.name), zap.Error(err))
		}
		out = append(out, res)
	}
	return out
}

//
// Scenarios
//

func (c *Checker) staticFile(ctx context.Context) error {
	resp, _, err := c.get(ctx, c.opts.StaticFile, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", c.opts.StaticFile, resp.StatusCode)
	}
	return nil
}

func (c *Checker) directory(ctx context.Context) error {
	dir := strings.TrimRight(c.opts.Dir, "/")
	resp, _, err := c.get(ctx, dir, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusMovedPermanently {
		return fmt.Errorf("%s: status %d, want 301", dir, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasSuffix(loc, dir+"/") {
		return fmt.Errorf("%s: redirected to %q", dir, loc)
	}
	return nil
}

func (c *Checker) rawSentinel(ctx context.Context) error {
	_, err := c.sentinel(ctx, rewrite.SelfTestUnclean, nil)
	return err
}

func (c *Checker) cleanSentinel(ctx context.Context) error {
	rep, err := c.sentinel(ctx, rewrite.SelfTestClean, nil)
	if err != nil {
		return err
	}
	if len(rep.Params) != 0 {
		return fmt.Errorf("unexpected params %v", rep.Params)
	}
	return nil
}

func (c *Checker) simpleParams(ctx context.Context) error {
	want := map[string]string{"foo": "bar", "id": "42"}
	return c.paramsRoundTrip(ctx, url.Values{"foo": {"bar"}, "id": {"42"}}, want)
}

func (c *Checker) encodedParams(ctx context.Context) error {
	raw := `a b&c=d/e?f#g%h+i`
	return c.paramsRoundTrip(ctx, url.Values{"q": {raw}}, map[string]string{"q": raw})
}

func (c *Checker) slashArguments(ctx context.Context) error {
	rep, err := c.sentinel(ctx, rewrite.SelfTestUnclean+"/arg/one", nil)
	if err != nil {
		return err
	}
	if rep.PathInfo != "/arg/one" {
		return fmt.Errorf("path info %q, want %q", rep.PathInfo, "/arg/one")
	}
	return nil
}

func (c *Checker) configProbe(ctx context.Context) error {
	rep, err := c.sentinel(ctx, rewrite.SelfTestClean, nil)
	if err != nil {
		return err
	}
	if !rep.Enabled {
		return fmt.Errorf("clean URLs are disabled in the site configuration")
	}
	return nil
}

//
// Helpers
//

func (c *Checker) paramsRoundTrip(ctx context.Context, q url.Values, want map[string]string) error {
	rep, err := c.sentinel(ctx, rewrite.SelfTestClean, q)
	if err != nil {
		return err
	}
	for k, v := range want {
		if got, ok := rep.Params[k]; !ok || got != v {
			return fmt.Errorf("param %q = %q, want %q", k, got, v)
		}
	}
	if len(rep.Params) != len(want) {
		return fmt.Errorf("params %v, want %v", rep.Params, want)
	}
	return nil
}

// sentinel requests path and decodes the handler's report.  The reported
// path must always be the unclean sentinel.
func (c *Checker) sentinel(ctx context.Context, path string, q url.Values) (*report, error) {
	resp, body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	var rep report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("%s: not a sentinel response: %w", path, err)
	}
	if rep.Status != "ok" {
		return nil, fmt.Errorf("%s: status field %q", path, rep.Status)
	}
	if want := c.mount + rewrite.SelfTestUnclean; rep.Path != want {
		return nil, fmt.Errorf("%s: handler saw %q, want %q", path, rep.Path, want)
	}
	return &rep, nil
}

func (c *Checker) get(ctx context.Context, path string, q url.Values) (*http.Response, []byte, error) {
	u := *c.base
	u.Path = c.mount + path
	u.RawPath = ""
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}
