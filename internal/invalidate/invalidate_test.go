package invalidate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/rewrite/rewritetest"
)

func setup(t *testing.T) (*rewritetest.Site, *engine.Engine, *Invalidator) {
	t.Helper()
	site := rewritetest.New("https://example.com")
	return site, engine.New(site.Env, engine.Static(*rewritetest.On())), New(site.Env)
}

func TestCourseRenameRecomputes(t *testing.T) {
	site, e, x := setup(t)
	ctx := context.Background()

	assert.Equal(t, "/course/shortname", e.Clean(ctx, "/course/view.php?id=7"))
	assert.Equal(t, "/course/shortname/forum/12-a-test-forum", e.Clean(ctx, "/mod/forum/view.php?id=12"))

	site.Resources.RenameCourse(7, "renamed")
	assert.Equal(t, "/course/shortname", e.Clean(ctx, "/course/view.php?id=7"), "still cached")

	n, err := x.Handle(ctx, Event{Name: CourseUpdated, ObjectID: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "/course/renamed", e.Clean(ctx, "/course/view.php?id=7"))
	assert.Equal(t, "/course/renamed/forum/12-a-test-forum", e.Clean(ctx, "/mod/forum/view.php?id=12"))

	_, ok := site.Env.Cache.Unclean(ctx, "/course/shortname")
	assert.False(t, ok, "incoming entry for the old clean url is gone")

	// History still answers the old link.
	assert.Equal(t, "/course/view.php?id=7", e.Unclean(ctx, "/course/shortname"))
}

func TestUserUpdated(t *testing.T) {
	_, e, x := setup(t)
	ctx := context.Background()

	e.Clean(ctx, "/user/profile.php?id=5")
	e.Clean(ctx, "/mod/forum/user.php?id=5")
	e.Clean(ctx, "/user/view.php?id=5&course=7")

	n, err := x.Handle(ctx, Event{Name: UserUpdated, ObjectID: 5, CourseID: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestModuleDeletedPurgesHistory(t *testing.T) {
	site, e, x := setup(t)
	ctx := context.Background()

	e.Clean(ctx, "/mod/forum/view.php?id=12")
	require.Equal(t, 1, site.History.Len())

	n, err := x.Handle(ctx, Event{Name: CourseModuleDeleted, ObjectID: 12, CourseID: 7, ModName: "forum"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, site.History.Len())
}

func TestSectionAndCategoryEvents(t *testing.T) {
	_, e, x := setup(t)
	ctx := context.Background()

	e.Clean(ctx, "/course/view.php?id=8&section=2")
	e.Clean(ctx, "/mod/quiz/view.php?id=21")
	e.Clean(ctx, "/course/index.php?categoryid=9")

	n, err := x.Handle(ctx, Event{Name: CourseSectionUpdated, ObjectID: 802, CourseID: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = x.Handle(ctx, Event{Name: CategoryUpdated, ObjectID: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandleRejects(t *testing.T) {
	_, _, x := setup(t)
	ctx := context.Background()

	_, err := x.Handle(ctx, Event{Name: "course_viewed", ObjectID: 1})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = x.Handle(ctx, Event{Name: CourseUpdated})
	assert.Error(t, err)

	_, err = x.Handle(ctx, Event{Name: CourseModuleDeleted, ObjectID: 1, ModName: "../etc"})
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	_, e, x := setup(t)
	ctx := context.Background()
	e.Clean(ctx, "/course/view.php?id=7")

	cases := []struct {
		method string
		body   string
		code   int
	}{
		{http.MethodGet, "", http.StatusMethodNotAllowed},
		{http.MethodPost, "{", http.StatusBadRequest},
		{http.MethodPost, `{"eventname":"course_updated","objectid":7,"extra":1}`, http.StatusBadRequest},
		{http.MethodPost, `{"eventname":"nope","objectid":7}`, http.StatusUnprocessableEntity},
		{http.MethodPost, `{"eventname":"course_updated","objectid":7}`, http.StatusAccepted},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "/events", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		x.Handler().ServeHTTP(rec, req)
		assert.Equal(t, tc.code, rec.Code, tc.body)
		if tc.code == http.StatusAccepted {
			assert.JSONEq(t, `{"evicted":1}`, rec.Body.String())
		}
	}
}
