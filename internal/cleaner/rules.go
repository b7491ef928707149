package cleaner

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/slug"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// state is the working copy a rule inspects and rewrites.  A rule that
// fires returns the new mount-relative path and deletes the parameters it
// consumed from params.
type state struct {
	ctx      context.Context
	env      *rewrite.Env
	settings *rewrite.Settings
	path     string
	params   weburl.Params
}

type rule struct {
	name string
	fn   func(*state) (string, bool)
}

// rules in priority order.  Only the first match fires.
var rules = []rule{
	{"course-by-id", courseByID},
	{"course-by-name", courseByName},
	{"category", categoryListing},
	{"participants", participants},
	{"user-in-course", userInCourse},
	{"user-profile", userProfile},
	{"user-forum-posts", userForumPosts},
	{"module-listing", moduleListing},
	{"module-view", moduleView},
}

func (st *state) apply() (string, bool) {
	for _, r := range rules {
		if p, ok := r.fn(st); ok {
			zap.L().Debug("clean rule fired", zap.String("rule", r.name), zap.String("path", p))
			return p, true
		}
	}
	return "", false
}

// id returns the positive integer parameter key.
func (st *state) id(key string) (int64, bool) {
	v, ok := st.params.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// lookupFailed logs unexpected store errors.  Not-found is routine.
func lookupFailed(what string, id any, err error) {
	if !errors.Is(err, resource.ErrNotFound) {
		zap.L().Error("resource lookup failed", zap.String("resource", what), zap.Any("key", id), zap.Error(err))
	}
}

func (st *state) course(id int64) (*resource.Course, bool) {
	c, err := st.env.Resources.CourseByID(st.ctx, id)
	if err != nil {
		lookupFailed("course", id, err)
		return nil, false
	}
	if !rewrite.ShortnameSegment(c.Shortname) {
		return nil, false
	}
	return c, true
}

func (st *state) username(id int64) (string, bool) {
	if !st.settings.CleanUsernames {
		return "", false
	}
	u, err := st.env.Resources.UserByID(st.ctx, id)
	if err != nil {
		lookupFailed("user", id, err)
		return "", false
	}
	if !rewrite.UsernameSegment(u.Username) {
		return "", false
	}
	return u.Username, true
}

// /course/view.php?id=N[&section=S]
func courseByID(st *state) (string, bool) {
	if st.path != "/course/view.php" {
		return "", false
	}
	id, ok := st.id("id")
	if !ok {
		return "", false
	}
	c, ok := st.course(id)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	out := "/course/" + c.Shortname

	if v, ok := st.params.Get("section"); ok {
		n, err := strconv.Atoi(v)
		if h := st.env.Formats.Resolve(c.Format); err == nil && n >= 0 && h != nil {
			if sub, ok := h.CleanSection(st.ctx, st.env.Resources, c, n); ok && sub != "" {
				st.params.Del("section")
				out += "/" + sub
			}
		}
	}
	return out, true
}

// /course/view.php?name=S
func courseByName(st *state) (string, bool) {
	if st.path != "/course/view.php" {
		return "", false
	}
	name, ok := st.params.Get("name")
	if !ok || !rewrite.ShortnameSegment(name) {
		return "", false
	}
	st.params.Del("name")
	return "/course/" + name, true
}

// /course/?categoryid=N → /category/<slug>-<id>/… down from the top level.
func categoryListing(st *state) (string, bool) {
	if st.path != "/course/" {
		return "", false
	}
	id, ok := st.id("categoryid")
	if !ok {
		return "", false
	}
	cat, err := st.env.Resources.CategoryByID(st.ctx, id)
	if err != nil {
		lookupFailed("category", id, err)
		return "", false
	}
	var b strings.Builder
	b.WriteString("/category")
	for _, aid := range cat.AncestorIDs() {
		a := cat
		if aid != cat.ID {
			if a, err = st.env.Resources.CategoryByID(st.ctx, aid); err != nil {
				lookupFailed("category", aid, err)
				return "", false
			}
		}
		b.WriteString("/")
		b.WriteString(slug.IDSuffixed(a.Name, a.ID))
	}
	st.params.Del("categoryid")
	return b.String(), true
}

// /user/?id=C → /course/<shortname>/user
func participants(st *state) (string, bool) {
	if st.path != "/user/" {
		return "", false
	}
	id, ok := st.id("id")
	if !ok {
		return "", false
	}
	c, ok := st.course(id)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	return "/course/" + c.Shortname + "/" + resource.ParticipantsSegment, true
}

// /user/view.php?id=U&course=C → /course/<shortname>/user/<username>
func userInCourse(st *state) (string, bool) {
	if st.path != "/user/view.php" {
		return "", false
	}
	uid, ok := st.id("id")
	if !ok {
		return "", false
	}
	cid, ok := st.id("course")
	if !ok {
		return "", false
	}
	name, ok := st.username(uid)
	if !ok {
		return "", false
	}
	c, ok := st.course(cid)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	st.params.Del("course")
	return "/course/" + c.Shortname + "/" + resource.ParticipantsSegment + "/" + name, true
}

// /user/profile.php?id=U → /user/<username>
func userProfile(st *state) (string, bool) {
	if st.path != "/user/profile.php" {
		return "", false
	}
	uid, ok := st.id("id")
	if !ok {
		return "", false
	}
	name, ok := st.username(uid)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	return "/user/" + name, true
}

// /mod/forum/user.php?id=U[&mode=M] → /user/<username>/forum[/M]
func userForumPosts(st *state) (string, bool) {
	if st.path != "/mod/forum/user.php" {
		return "", false
	}
	uid, ok := st.id("id")
	if !ok {
		return "", false
	}
	name, ok := st.username(uid)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	out := "/user/" + name + "/forum"
	if mode, ok := st.params.Get("mode"); ok && rewrite.SafeSegment(mode) {
		st.params.Del("mode")
		out += "/" + mode
	}
	return out, true
}

// modPath splits "/mod/<mod>/<rest>" for a known module type.
func (st *state) modPath() (mod, rest string, ok bool) {
	p, found := strings.CutPrefix(st.path, "/mod/")
	if !found {
		return "", "", false
	}
	mod, rest, found = strings.Cut(p, "/")
	if !found || !resource.IsModuleType(st.ctx, st.env.Resources, mod) {
		return "", "", false
	}
	return mod, rest, true
}

// /mod/<mod>/?id=C → /course/<shortname>/<mod>/
func moduleListing(st *state) (string, bool) {
	mod, rest, ok := st.modPath()
	if !ok || rest != "" {
		return "", false
	}
	id, ok := st.id("id")
	if !ok {
		return "", false
	}
	c, ok := st.course(id)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	return "/course/" + c.Shortname + "/" + mod + "/", true
}

// /mod/<mod>/view.php?id=N → /course/<shortname>/<format subpath> or
// /course/<shortname>/<mod>/<id>-<slug>
func moduleView(st *state) (string, bool) {
	mod, rest, ok := st.modPath()
	if !ok || rest != "view.php" {
		return "", false
	}
	id, ok := st.id("id")
	if !ok {
		return "", false
	}
	cm, err := st.env.Resources.ModuleByID(st.ctx, id)
	if err != nil {
		lookupFailed("course module", id, err)
		return "", false
	}
	if cm.ModName != mod {
		return "", false
	}
	c, ok := st.course(cm.Course)
	if !ok {
		return "", false
	}
	st.params.Del("id")
	if h := st.env.Formats.Resolve(c.Format); h != nil {
		if sub, ok := h.CleanModule(st.ctx, st.env.Resources, c, cm); ok && sub != "" {
			return "/course/" + c.Shortname + "/" + sub, true
		}
	}
	return "/course/" + c.Shortname + "/" + mod + "/" + slug.IDPrefixed(cm.ID, cm.Name), true
}
