package uncleaner

import (
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/slug"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// kindRule is one row of the kind table.
//
//   - admit is a cheap predicate on the prospective parent.
//   - build consumes segments and performs lookups.  Returning false
//     passes the turn to the next candidate kind.
//   - resolve yields the mount-relative unclean path and its identifying
//     parameters, or false when the node knows too little.
type kindRule struct {
	admit    func(r *run, parent *Node) bool
	build    func(r *run, parent *Node) (Node, bool)
	resolve  func(r *run, n *Node) (string, weburl.Params, bool)
	children []Kind
}

var table = [kindCount]kindRule{
	KindRoot: {
		admit:    func(*run, *Node) bool { return false },
		resolve:  func(*run, *Node) (string, weburl.Params, bool) { return "", nil, false },
		children: []Kind{KindSelfTest, KindCategory, KindUser, KindCourse},
	},
	KindSelfTest: {
		admit:   admitSelfTest,
		build:   consume(len(rewrite.SelfTestSegments)),
		resolve: resolveSelfTest,
	},
	KindCategory: {
		admit:    admitCategory,
		build:    buildCategory,
		resolve:  resolveCategory,
		children: []Kind{KindCategory},
	},
	KindUser: {
		admit:    admitUser,
		build:    buildUser,
		resolve:  resolveUser,
		children: []Kind{KindUserInForum},
	},
	KindUserInForum: {
		admit:   admitUserInForum,
		build:   buildUserInForum,
		resolve: resolveUserInForum,
	},
	KindCourse: {
		admit:    admitCourse,
		build:    buildCourse,
		resolve:  resolveCourse,
		children: []Kind{KindUserInCourse, KindCourseFormat, KindCourseModule},
	},
	KindUserInCourse: {
		admit:   admitUserInCourse,
		build:   buildUserInCourse,
		resolve: resolveUserInCourse,
	},
	KindCourseFormat: {
		admit:   admitCourseFormat,
		build:   buildCourseFormat,
		resolve: resolveCourseFormat,
	},
	KindCourseModule: {
		admit:   admitCourseModule,
		build:   buildCourseModule,
		resolve: resolveCourseModule,
	},
}

// consume returns a build step that takes n segments and nothing else.
func consume(n int) func(*run, *Node) (Node, bool) {
	return func(_ *run, p *Node) (Node, bool) {
		return Node{MyPath: p.SubPath[:n]}, true
	}
}

func params(kv ...string) weburl.Params {
	out := make(weburl.Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, weburl.Param{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func lookupFailed(what string, key any, err error) {
	if !errors.Is(err, resource.ErrNotFound) {
		zap.L().Error("resource lookup failed", zap.String("resource", what), zap.Any("key", key), zap.Error(err))
	}
}

//
// Self-test
//

func admitSelfTest(_ *run, p *Node) bool {
	if p.Kind != KindRoot || len(p.SubPath) < len(rewrite.SelfTestSegments) {
		return false
	}
	for i, s := range rewrite.SelfTestSegments {
		if p.SubPath[i] != s {
			return false
		}
	}
	return true
}

func resolveSelfTest(*run, *Node) (string, weburl.Params, bool) {
	return rewrite.SelfTestUnclean, nil, true
}

//
// Categories: /category/<slug>-<id>/<slug>-<id>/…
//

func admitCategory(_ *run, p *Node) bool {
	switch p.Kind {
	case KindRoot:
		return p.SubPath[0] == "category"
	case KindCategory:
		_, _, ok := slug.ParseIDSuffix(p.SubPath[0])
		return ok
	}
	return false
}

func buildCategory(r *run, p *Node) (Node, bool) {
	if p.Kind == KindRoot {
		return Node{MyPath: p.SubPath[:1], found: true}, true
	}
	tok := p.SubPath[0]
	id, _, _ := slug.ParseIDSuffix(tok)
	n := Node{MyPath: p.SubPath[:1], CategoryID: id, Token: tok}
	if _, err := r.env.Resources.CategoryByID(r.ctx, id); err != nil {
		lookupFailed("category", id, err)
	} else {
		n.found = true
	}
	return n, true
}

func resolveCategory(_ *run, n *Node) (string, weburl.Params, bool) {
	if !n.found {
		return "", nil, false
	}
	if n.CategoryID == 0 {
		return "/course/index.php", nil, true
	}
	return "/course/index.php", params("categoryid", itoa(n.CategoryID)), true
}

//
// Users: /user/<username>[/forum[/<mode>]]
//

func admitUser(_ *run, p *Node) bool {
	return p.Kind == KindRoot && len(p.SubPath) >= 2 && p.SubPath[0] == "user"
}

func buildUser(r *run, p *Node) (Node, bool) {
	n := Node{MyPath: p.SubPath[:2], Token: p.SubPath[1]}
	u, err := r.env.Resources.UserByUsername(r.ctx, n.Token)
	if err != nil {
		lookupFailed("user", n.Token, err)
	} else {
		n.User = u
	}
	return n, true
}

func resolveUser(_ *run, n *Node) (string, weburl.Params, bool) {
	if n.User == nil {
		return "", nil, false
	}
	return "/user/profile.php", params("id", itoa(n.User.ID)), true
}

func admitUserInForum(_ *run, p *Node) bool {
	return p.Kind == KindUser && p.User != nil && p.SubPath[0] == "forum"
}

func buildUserInForum(_ *run, p *Node) (Node, bool) {
	n := Node{MyPath: p.SubPath[:1], User: p.User}
	if len(p.SubPath) > 1 {
		n.MyPath = p.SubPath[:2]
		n.Token = p.SubPath[1]
	}
	return n, true
}

func resolveUserInForum(_ *run, n *Node) (string, weburl.Params, bool) {
	ps := params("id", itoa(n.User.ID))
	if n.Token != "" {
		ps = append(ps, weburl.Param{Key: "mode", Value: n.Token})
	}
	return "/mod/forum/user.php", ps, true
}

//
// Courses: /course/<shortname>/…
//

func admitCourse(_ *run, p *Node) bool {
	return p.Kind == KindRoot && len(p.SubPath) >= 2 && p.SubPath[0] == "course"
}

func buildCourse(r *run, p *Node) (Node, bool) {
	n := Node{MyPath: p.SubPath[:2], Token: p.SubPath[1]}
	c, err := r.env.Resources.CourseByShortname(r.ctx, n.Token)
	if err != nil {
		lookupFailed("course", n.Token, err)
	} else {
		n.Course = c
	}
	return n, true
}

// resolveCourse answers by name.  An unknown shortname does not resolve, so
// a renamed course can still be found through history.
func resolveCourse(_ *run, n *Node) (string, weburl.Params, bool) {
	if n.Course == nil {
		return "", nil, false
	}
	return "/course/view.php", params("name", n.Token), true
}

func admitUserInCourse(_ *run, p *Node) bool {
	return p.Kind == KindCourse && p.Course != nil && p.SubPath[0] == resource.ParticipantsSegment
}

func buildUserInCourse(r *run, p *Node) (Node, bool) {
	n := Node{MyPath: p.SubPath[:1], Course: p.Course, found: true}
	if len(p.SubPath) > 1 {
		n.MyPath = p.SubPath[:2]
		n.Token = p.SubPath[1]
		n.found = false
		u, err := r.env.Resources.UserByUsername(r.ctx, n.Token)
		if err != nil {
			lookupFailed("user", n.Token, err)
		} else {
			n.User, n.found = u, true
		}
	}
	return n, true
}

func resolveUserInCourse(_ *run, n *Node) (string, weburl.Params, bool) {
	switch {
	case !n.found:
		return "", nil, false
	case n.User == nil:
		return "/user/index.php", params("id", itoa(n.Course.ID)), true
	}
	return "/user/view.php", params("id", itoa(n.User.ID), "course", itoa(n.Course.ID)), true
}

func admitCourseFormat(r *run, p *Node) bool {
	return p.Kind == KindCourse && p.Course != nil && r.env.Formats.Resolve(p.Course.Format) != nil
}

func buildCourseFormat(r *run, p *Node) (Node, bool) {
	h := r.env.Formats.Resolve(p.Course.Format)
	t, ok := h.Unclean(r.ctx, r.env.Resources, p.Course, p.SubPath)
	if !ok || t.Consumed <= 0 || t.Consumed > len(p.SubPath) {
		return Node{}, false
	}
	return Node{
		MyPath:  p.SubPath[:t.Consumed],
		Course:  p.Course,
		Module:  t.Module,
		Section: t.Section,
	}, true
}

func resolveCourseFormat(_ *run, n *Node) (string, weburl.Params, bool) {
	if n.Module != nil {
		return "/mod/" + n.Module.ModName + "/view.php", params("id", itoa(n.Module.ID)), true
	}
	return "/course/view.php", params("id", itoa(n.Course.ID), "section", strconv.Itoa(n.Section)), true
}

func admitCourseModule(r *run, p *Node) bool {
	return p.Kind == KindCourse && p.Course != nil &&
		resource.IsModuleType(r.ctx, r.env.Resources, p.SubPath[0])
}

func buildCourseModule(r *run, p *Node) (Node, bool) {
	n := Node{MyPath: p.SubPath[:1], Course: p.Course, ModName: p.SubPath[0]}
	if len(p.SubPath) < 2 {
		return n, true
	}
	n.MyPath = p.SubPath[:2]
	n.Token = p.SubPath[1]
	n.Module = findModule(r, p.Course, n.ModName, n.Token)
	return n, true
}

// findModule prefers the id in an "<id>-<slug>" token and falls back to a
// slug that is unique among the course's modules of that type.
func findModule(r *run, c *resource.Course, modname, token string) *resource.CourseModule {
	if id, _, ok := slug.ParseIDPrefix(token); ok {
		cm, err := r.env.Resources.ModuleByID(r.ctx, id)
		if err == nil && cm.Course == c.ID && cm.ModName == modname {
			return cm
		}
		if err != nil {
			lookupFailed("course module", id, err)
		}
	}
	all, err := r.env.Resources.CourseModules(r.ctx, c.ID)
	if err != nil {
		lookupFailed("course modules", c.ID, err)
		return nil
	}
	var match *resource.CourseModule
	for i := range all {
		if all[i].ModName != modname || slug.Make(all[i].Name) != token {
			continue
		}
		if match != nil {
			return nil
		}
		match = &all[i]
	}
	return match
}

func resolveCourseModule(_ *run, n *Node) (string, weburl.Params, bool) {
	switch {
	case n.Token == "":
		return "/mod/" + n.ModName + "/index.php", params("id", itoa(n.Course.ID)), true
	case n.Module != nil:
		return "/mod/" + n.ModName + "/view.php", params("id", itoa(n.Module.ID)), true
	}
	return "", nil, false
}
