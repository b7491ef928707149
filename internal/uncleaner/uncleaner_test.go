package uncleaner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/cleanurls/internal/format"
	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/rewrite/rewritetest"
	"github.com/yanizio/cleanurls/internal/weburl"
)

func unclean(t *testing.T, site *rewritetest.Site, s *rewrite.Settings, raw string) string {
	t.Helper()
	return New(site.Env).Unclean(context.Background(), s, weburl.MustParse(raw)).String()
}

func TestUncleanNodes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"course", "/course/shortname", "/course/view.php?name=shortname"},
		{"course keeps extra params", "/course/shortname?lang=fr", "/course/view.php?name=shortname&lang=fr"},
		{"category root", "/category", "/course/index.php"},
		{"category chain", "/category/sciences-3/compsci-9", "/course/index.php?categoryid=9"},
		{"category slug is cosmetic", "/category/whatever-3/renamed-9", "/course/index.php?categoryid=9"},
		{"participants", "/course/shortname/user", "/user/index.php?id=7"},
		{"user in course", "/course/shortname/user/theusername", "/user/view.php?id=5&course=7"},
		{"user profile", "/user/theusername", "/user/profile.php?id=5"},
		{"forum posts", "/user/theusername/forum", "/mod/forum/user.php?id=5"},
		{"forum posts mode", "/user/theusername/forum/discussions", "/mod/forum/user.php?id=5&mode=discussions"},
		{"module listing", "/course/shortname/forum/", "/mod/forum/index.php?id=7"},
		{"module by id token", "/course/shortname/forum/12-a-test-forum", "/mod/forum/view.php?id=12"},
		{"module slug is cosmetic", "/course/shortname/forum/12-old-title", "/mod/forum/view.php?id=12"},
		{"module by bare slug", "/course/shortname/forum/a-test-forum", "/mod/forum/view.php?id=12"},
		{"nested module", "/course/nested/week-one/day-one/quiz", "/mod/quiz/view.php?id=21"},
		{"nested section", "/course/nested/week-one/day-one", "/course/view.php?id=8&section=2"},
		{"nested course falls through to module", "/course/nested/forum/20-intro", "/mod/forum/view.php?id=20"},
		{"single activity", "/course/single/final-exam", "/mod/quiz/view.php?id=30"},
		{"self test", rewrite.SelfTestClean, rewrite.SelfTestUnclean},
		{"node params win", "/course/shortname/forum/12-a-test-forum?id=99&x=1", "/mod/forum/view.php?id=12&x=1"},
		{"absolute", "https://example.com/user/theusername#top", "https://example.com/user/profile.php?id=5#top"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := rewritetest.New("https://example.com")
			assert.Equal(t, tc.want, unclean(t, site, rewritetest.On(), tc.in))
		})
	}
}

func TestUncleanLeavesInputAlone(t *testing.T) {
	site := rewritetest.New("https://example.com")
	for _, in := range []string{
		"/",
		"/nothing/here",
		"/course/view.php?id=7",
		"/theme/styles.css",
		"/admin/tool/x",
		"/course/shortname?sesskey=abc",
		"/course/nosuch",
		"https://other.org/course/shortname",
	} {
		assert.Equal(t, in, unclean(t, site, rewritetest.On(), in), in)
	}
}

func TestUncleanDisabledOnlySentinel(t *testing.T) {
	site := rewritetest.New("https://example.com")
	off := &rewrite.Settings{}
	assert.Equal(t, "/course/shortname", unclean(t, site, off, "/course/shortname"))
	assert.Equal(t, rewrite.SelfTestUnclean, unclean(t, site, off, rewrite.SelfTestClean))
}

func TestUncleanPartial(t *testing.T) {
	site := rewritetest.New("https://example.com")
	s := rewritetest.On()

	// Unknown trailing detail falls back to the deepest resolving ancestor.
	assert.Equal(t, "/course/view.php?name=shortname", unclean(t, site, s, "/course/shortname/nonsense/deeper"))
	assert.Equal(t, "/course/view.php?name=shortname", unclean(t, site, s, "/course/shortname/forum/999-gone"))
	assert.Equal(t, "/course/index.php?categoryid=3", unclean(t, site, s, "/category/sciences-3/missing-77"))

	// Partial answers are not cached.
	_, ok := site.Env.Cache.Unclean(context.Background(), "/course/shortname/nonsense/deeper")
	assert.False(t, ok)
}

func TestUncleanHistoryBeforePartial(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()
	require.NoError(t, site.History.Put(ctx, "/course/shortname/forum/old-name", "/mod/forum/view.php?id=12"))

	assert.Equal(t, "/mod/forum/view.php?id=12", unclean(t, site, rewritetest.On(), "/course/shortname/forum/old-name"))
}

func TestUncleanHistoryAfterRename(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()
	require.NoError(t, site.History.Put(ctx, "/user/oldname", "/user/profile.php?id=5"))

	assert.Equal(t, "/user/profile.php?id=5", unclean(t, site, rewritetest.On(), "/user/oldname"))
	assert.Equal(t, "/user/oldname?x=1", unclean(t, site, rewritetest.On(), "/user/oldname?x=1"))
}

func TestUncleanTreeBeatsHistory(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()
	require.NoError(t, site.History.Put(ctx, "/user/theusername", "/user/profile.php?id=999"))

	assert.Equal(t, "/user/profile.php?id=5", unclean(t, site, rewritetest.On(), "/user/theusername"))
}

func TestUncleanCaches(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()

	unclean(t, site, rewritetest.On(), "/user/theusername")
	got, ok := site.Env.Cache.Unclean(ctx, "/user/theusername")
	require.True(t, ok)
	assert.Equal(t, "/user/profile.php?id=5", got)

	s := rewritetest.On()
	s.CacheDisabled = true
	unclean(t, site, s, "/course/shortname")
	_, ok = site.Env.Cache.Unclean(ctx, "/course/shortname")
	assert.False(t, ok)
}

func TestUncleanUnderMount(t *testing.T) {
	site := rewritetest.New("https://example.com/lms")
	assert.Equal(t, "/lms/course/view.php?name=shortname", unclean(t, site, rewritetest.On(), "/lms/course/shortname"))
	assert.Equal(t, "/course/shortname", unclean(t, site, rewritetest.On(), "/course/shortname"))
}

func TestBuildConsumesPathExactly(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()

	for _, in := range []string{
		"/category/sciences-3/compsci-9",
		"/course/nested/week-one/day-one/quiz",
		"/course/shortname/user/theusername",
		"/user/theusername/forum/discussions",
		"/course/shortname/unknown/tail",
		"/local/cleanurls/webcheck",
	} {
		segs := weburl.SplitPath(in)
		tree := Build(ctx, site.Env, rewritetest.On(), segs, nil)
		leaf := tree.Leaf()
		consumed := tree.Consumed(leaf)
		assert.Equal(t, segs, append(consumed, tree.Nodes[leaf].SubPath...), in)
		assert.True(t, strings.HasPrefix(in, "/"+strings.Join(consumed, "/")), in)
	}
}

func TestBuildKindChains(t *testing.T) {
	site := rewritetest.New("https://example.com")
	ctx := context.Background()
	chain := func(p string) []Kind {
		tree := Build(ctx, site.Env, rewritetest.On(), weburl.SplitPath(p), nil)
		return tree.Kinds(tree.Leaf())
	}

	assert.Equal(t, []Kind{KindRoot, KindCategory, KindCategory, KindCategory}, chain("/category/sciences-3/compsci-9"))
	assert.Equal(t, []Kind{KindRoot, KindCourse, KindCourseFormat}, chain("/course/nested/week-one"))
	assert.Equal(t, []Kind{KindRoot, KindCourse, KindCourseModule}, chain("/course/shortname/forum/12-x"))
	assert.Equal(t, []Kind{KindRoot, KindCourse, KindUserInCourse}, chain("/course/shortname/user"))
	assert.Equal(t, []Kind{KindRoot, KindUser, KindUserInForum}, chain("/user/theusername/forum"))
	assert.Equal(t, []Kind{KindRoot, KindSelfTest}, chain("/local/cleanurls/webcheck"))
	assert.Equal(t, []Kind{KindRoot}, chain("/blocks/x"))
	assert.Equal(t, "course-format", KindCourseFormat.String())
}

// A registered handler that resolves everything to one section.
type everything struct{ format.NestedSections }

func (everything) Unclean(_ context.Context, _ resource.Store, _ *resource.Course, segs []string) (format.Target, bool) {
	return format.Target{Consumed: len(segs), Section: 1}, true
}

func TestExternalFormatHandlerTakesPriority(t *testing.T) {
	site := rewritetest.New("https://example.com")
	reg := format.NewRegistry()
	require.NoError(t, reg.Register("topics", everything{}))
	site.Env.Formats = reg

	assert.Equal(t, "/course/view.php?id=7&section=1", unclean(t, site, rewritetest.On(), "/course/shortname/forum/12-a-test-forum"))
}
