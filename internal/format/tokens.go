package format

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/slug"
)

// reserved is a set of tokens a handler must not emit bare at one level,
// because the uncleaner would route them somewhere else first.
type reserved map[string]bool

// courseLevel returns the words that already mean something directly below
// /course/<shortname>/: the participants keyword and every module type.
func courseLevel(ctx context.Context, rs resource.Store) reserved {
	r := reserved{resource.ParticipantsSegment: true}
	types, err := rs.ModuleTypes(ctx)
	if err != nil {
		storeFailed("module types", 0, err)
	}
	for _, t := range types {
		r[t] = true
	}
	return r
}

// storeFailed logs unexpected store errors.  Not-found is routine.
func storeFailed(what string, courseID int64, err error) {
	if !errors.Is(err, resource.ErrNotFound) {
		zap.L().Error("course format lookup failed",
			zap.String("resource", what), zap.Int64("course", courseID), zap.Error(err))
	}
}

// activityToken returns the path token for cm among scope.  The bare slug
// is used when it is non-empty, unique in scope, not in taken, and cannot
// be mistaken for the id prefix of another activity in scope; otherwise
// "<id>-<slug>".
func activityToken(cm resource.CourseModule, scope []resource.CourseModule, taken reserved) string {
	s := slug.Make(cm.Name)
	if s == "" || taken[s] {
		return slug.IDPrefixed(cm.ID, cm.Name)
	}
	if id, _, ok := slug.ParseIDPrefix(s); ok && id != cm.ID && containsModule(scope, id) {
		return slug.IDPrefixed(cm.ID, cm.Name)
	}
	for _, other := range scope {
		if other.ID != cm.ID && slug.Make(other.Name) == s {
			return slug.IDPrefixed(cm.ID, cm.Name)
		}
	}
	return s
}

// matchActivity finds the activity whose token is token.  A stale
// "<id>-<old-slug>" token still matches by id.
func matchActivity(token string, scope []resource.CourseModule, taken reserved) (*resource.CourseModule, bool) {
	for i := range scope {
		if activityToken(scope[i], scope, taken) == token {
			return &scope[i], true
		}
	}
	if id, _, ok := slug.ParseIDPrefix(token); ok {
		for i := range scope {
			if scope[i].ID == id {
				return &scope[i], true
			}
		}
	}
	return nil, false
}

func containsModule(scope []resource.CourseModule, id int64) bool {
	for _, cm := range scope {
		if cm.ID == id {
			return true
		}
	}
	return false
}

// sectionToken returns the path token for s among its siblings.  Duplicate,
// empty, or taken slugs fall back to "<num>-<slug>".
func sectionToken(s resource.Section, siblings []resource.Section, taken reserved) string {
	t := slug.Make(s.Title())
	dup := t == "" || taken[t]
	for _, other := range siblings {
		if other.Num != s.Num && slug.Make(other.Title()) == t {
			dup = true
		}
	}
	if !dup {
		return t
	}
	n := strconv.Itoa(s.Num)
	if t == "" {
		return n
	}
	return n + "-" + t
}

func matchSection(token string, siblings []resource.Section, taken reserved) (*resource.Section, bool) {
	for i := range siblings {
		if sectionToken(siblings[i], siblings, taken) == token {
			return &siblings[i], true
		}
	}
	return nil, false
}

func modulesInSection(all []resource.CourseModule, num int) []resource.CourseModule {
	var out []resource.CourseModule
	for _, cm := range all {
		if cm.SectionNum == num {
			out = append(out, cm)
		}
	}
	return out
}

func sectionByNum(all []resource.Section, num int) (*resource.Section, bool) {
	for i := range all {
		if all[i].Num == num {
			return &all[i], true
		}
	}
	return nil, false
}
