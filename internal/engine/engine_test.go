package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/rewrite/rewritetest"
	"github.com/yanizio/cleanurls/internal/weburl"
)

type EngineSuite struct {
	suite.Suite
	site     *rewritetest.Site
	settings atomic.Pointer[Settings]
	engine   *Engine
	ctx      context.Context
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.site = rewritetest.New("https://example.com")
	s.settings.Store(&Settings{Enabled: true, CleanUsernames: true})
	s.engine = New(s.site.Env, func() Settings { return *s.settings.Load() })
}

func (s *EngineSuite) set(v Settings) { s.settings.Store(&v) }

func (s *EngineSuite) TestCourseScenario() {
	s.Equal("/course/view.php?name=shortname", s.engine.Unclean(s.ctx, "/course/shortname"))
	s.Equal("/course/shortname", s.engine.Clean(s.ctx, "/course/view.php?id=7"))
}

func (s *EngineSuite) TestCategoryScenario() {
	s.Equal("/category/sciences-3/compsci-9", s.engine.Clean(s.ctx, "/course/index.php?categoryid=9"))
}

func (s *EngineSuite) TestForumScenario() {
	s.Equal("/course/shortname/forum/12-a-test-forum", s.engine.Clean(s.ctx, "/mod/forum/view.php?id=12"))
}

func (s *EngineSuite) TestUsernameScenario() {
	s.Equal("/user/theusername", s.engine.Clean(s.ctx, "/user/profile.php?id=5"))

	s.SetupTest()
	s.set(Settings{Enabled: true})
	s.Equal("/user/profile.php?id=5", s.engine.Clean(s.ctx, "/user/profile.php?id=5"))
}

func (s *EngineSuite) TestSentinelIgnoresEnabled() {
	for _, v := range []Settings{{}, {Enabled: true}, {CacheDisabled: true}} {
		s.set(v)
		s.Equal(rewrite.SelfTestClean, s.engine.Clean(s.ctx, rewrite.SelfTestUnclean))
		s.Equal(rewrite.SelfTestUnclean, s.engine.Unclean(s.ctx, rewrite.SelfTestClean))
	}
}

func (s *EngineSuite) TestSettingsReadPerCall() {
	s.set(Settings{})
	s.Equal("/course/view.php?id=7", s.engine.Clean(s.ctx, "/course/view.php?id=7"))
	s.set(Settings{Enabled: true})
	s.Equal("/course/shortname", s.engine.Clean(s.ctx, "/course/view.php?id=7"))
}

// Every shape with a forward rule comes back to the same path and
// parameters.  Course-by-id resolves back by name, so only its path is
// compared.
func (s *EngineSuite) TestRoundTrip() {
	cases := []struct {
		in       string
		pathOnly bool
	}{
		{in: "/course/view.php?id=7", pathOnly: true},
		{in: "/course/view.php?name=shortname"},
		{in: "/course/view.php?id=8&section=2"},
		{in: "/course/index.php?categoryid=9"},
		{in: "/user/index.php?id=7"},
		{in: "/user/view.php?id=5&course=7"},
		{in: "/user/profile.php?id=5"},
		{in: "/mod/forum/user.php?id=5&mode=discussions"},
		{in: "/mod/forum/index.php?id=7"},
		{in: "/mod/forum/view.php?id=12"},
		{in: "/mod/forum/view.php?id=20"},
		{in: "/mod/quiz/view.php?id=21"},
		{in: "/mod/quiz/view.php?id=30"},
		{in: "/mod/forum/view.php?id=12&extra=1"},
		// format tokens that would shadow another node
		{in: "/mod/quiz/view.php?id=40"},
		{in: "/user/index.php?id=12"},
		{in: "/mod/quiz/index.php?id=12"},
		{in: "/mod/page/view.php?id=22"},
		{in: "/course/view.php?id=13&section=1"},
		{in: "/mod/forum/index.php?id=13"},
		{in: "/mod/forum/view.php?id=50"},
	}
	for _, tc := range cases {
		// Fresh caches so the backward direction runs the tree.
		s.SetupTest()
		s.set(Settings{Enabled: true, CleanUsernames: true, CacheDisabled: true})

		u := weburl.MustParse(tc.in)
		c := s.engine.CleanURL(s.ctx, u)
		s.NotEqual(u.Path, c.Path, tc.in)

		back := s.engine.UncleanURL(s.ctx, weburl.MustParse(c.String()))
		s.Equal(u.Path, back.Path, tc.in)
		if !tc.pathOnly {
			s.Equal(u.Params.Map(), back.Params.Map(), tc.in)
		}
	}
}

func (s *EngineSuite) TestRoundTripThroughCache() {
	c := s.engine.Clean(s.ctx, "/course/view.php?id=7")
	s.Equal("/course/view.php?id=7", s.engine.Unclean(s.ctx, c))
}

func (s *EngineSuite) TestIdempotence() {
	for _, in := range []string{
		"/course/view.php?id=7",
		"/mod/forum/view.php?id=12",
		"/user/view.php?id=5&course=7",
		"/course/index.php?categoryid=9",
		"/blocks/unknown.php?x=y",
	} {
		once := s.engine.Clean(s.ctx, in)
		s.Equal(once, s.engine.Clean(s.ctx, once), in)
	}
}

func (s *EngineSuite) TestCollisionGuard() {
	s.Equal("/course/view.php?id=11", s.engine.Clean(s.ctx, "/course/view.php?id=11"))
}

func (s *EngineSuite) TestBypassSet() {
	for _, in := range []string{
		"/theme/image.php?file=logo",
		"/lib/requirejs.php",
		"/admin/index.php",
		"/mod/forum/view.php?id=12&sesskey=xyz",
	} {
		s.Equal(in, s.engine.Clean(s.ctx, in))
	}
	s.Zero(s.site.LRU.Len())
}

func (s *EngineSuite) TestUnparsable() {
	s.Equal("%zz", s.engine.Clean(s.ctx, "%zz"))
	s.Equal("%zz", s.engine.Unclean(s.ctx, "%zz"))
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}
