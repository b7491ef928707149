package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/cleanurls/internal/weburl"
)

func TestMountHelpers(t *testing.T) {
	e := &Env{WWWRoot: weburl.MustParse("https://example.com/lms/")}

	assert.Equal(t, "/lms", e.MountPath())

	rel, ok := e.StripMount("/lms/course/view.php")
	assert.True(t, ok)
	assert.Equal(t, "/course/view.php", rel)

	rel, ok = e.StripMount("/lms")
	assert.True(t, ok)
	assert.Equal(t, "/", rel)

	_, ok = e.StripMount("/lmsx/course")
	assert.False(t, ok)

	assert.Equal(t, "/lms/course/shortname", e.WithMount("/course/shortname"))
}

func TestRootMount(t *testing.T) {
	e := &Env{WWWRoot: weburl.MustParse("https://example.com")}
	rel, ok := e.StripMount("/course/view.php")
	assert.True(t, ok)
	assert.Equal(t, "/course/view.php", rel)
	assert.Equal(t, "/x", e.WithMount("/x"))
}

func TestOnSite(t *testing.T) {
	e := &Env{WWWRoot: weburl.MustParse("https://example.com")}
	assert.True(t, e.OnSite(weburl.MustParse("/course/view.php")))
	assert.True(t, e.OnSite(weburl.MustParse("https://EXAMPLE.com/course/view.php")))
	assert.False(t, e.OnSite(weburl.MustParse("https://other.org/course/view.php")))
}

func TestSettingsCacheable(t *testing.T) {
	var s *Settings
	assert.True(t, s.Cacheable())
	assert.False(t, (&Settings{CacheDisabled: true}).Cacheable())
}

func TestBypassed(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"/admin/settings.php", true},
		{"/admin", true},
		{"/theme/image.php?image=x", true},
		{"/lib/javascript.php", true},
		{"/login/index.php", true},
		{"/auth/saml/login.php", true},
		{"/course/view.php?id=7&sesskey=abc", true},
		{"/course/view.php?id=7", false},
		{"/administrator/x", false},
	}
	for _, tc := range cases {
		u := weburl.MustParse(tc.raw)
		assert.Equal(t, tc.want, Bypassed(u.Path, u.Params), tc.raw)
	}
}

func TestSegments(t *testing.T) {
	assert.True(t, UsernameSegment("theusername"))
	assert.False(t, UsernameSegment("12345"))
	assert.False(t, UsernameSegment("first last"))
	assert.False(t, UsernameSegment("a/b"))
	assert.True(t, ShortnameSegment("Intro 101"))
	assert.False(t, ShortnameSegment("a/b"))
	assert.False(t, ShortnameSegment(".."))
}
