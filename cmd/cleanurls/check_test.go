package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/yanizio/cleanurls/components/webcheck"
	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/invalidate"
	"github.com/yanizio/cleanurls/internal/rewrite/rewritetest"
	"github.com/yanizio/cleanurls/internal/routing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckAgainstHealthySite(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	defer upstream.Close()
	target, _ := url.Parse(upstream.URL)

	site := rewritetest.New("https://example.com")
	h, err := routing.New(routing.Deps{
		Engine:      engine.New(site.Env, engine.Static(*rewritetest.On())),
		Invalidator: invalidate.New(site.Env),
		Upstream:    target,
	})
	require.NoError(t, err)
	front := httptest.NewServer(h)
	defer front.Close()

	out, err := runCLI(t, "check", "--url", front.URL, "--static", "/theme/styles.css", "--dir", "/mod/forum")
	require.NoError(t, err, out)
	assert.Equal(t, 8, strings.Count(out, "PASS"), out)
	assert.NotContains(t, out, "FAIL")
}

func TestCheckFailsOnBrokenSite(t *testing.T) {
	broken := httptest.NewServer(http.NotFoundHandler())
	defer broken.Close()

	out, err := runCLI(t, "check", "--url", broken.URL, "--static", "/x.css", "--dir", "/x")
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL")
}
