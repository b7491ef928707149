// internal/invalidate/invalidate.go
//
// Resource events → cache evictions.
//
// Context
// -------
// The outgoing cache remembers how an unclean URL was cleaned.  When the
// resource behind it changes (a course is renamed, an activity moves to
// another section, a user picks a new username) that answer goes stale.
// The site reports such changes as events; Handle turns each one into the
// list of unclean request URIs it can affect and evicts them, together
// with the incoming entries that point back at them.
//
// Workflow
// --------
//   1. Validate the event.
//   2. Enumerate affected unclean URIs (lookups happen before eviction, so
//      a deleted resource only contributes what the event itself names).
//   3. Forget each URI in the two-way cache.
//   4. For deletions, also drop the history rows that point at the gone
//      resource.
//
// Notes
// -----
// • Category events evict the category listing only; the store cannot
//   enumerate descendants.
// • Events are delivered in-process (Handle) or over HTTP (handler.go).
// • Oxford commas, two spaces after periods.
package invalidate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/metrics"
	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
)

// Event names understood by Handle.
const (
	CourseUpdated        = "course_updated"
	CourseDeleted        = "course_deleted"
	CategoryUpdated      = "course_category_updated"
	CourseModuleUpdated  = "course_module_updated"
	CourseModuleDeleted  = "course_module_deleted"
	CourseSectionUpdated = "course_section_updated"
	UserUpdated          = "user_updated"
)

// ErrUnknownEvent is returned for event names Handle does not know.
var ErrUnknownEvent = errors.New("unknown event")

// Event is one resource change.  ObjectID names the changed resource;
// CourseID and ModName add context a deleted resource can no longer give.
type Event struct {
	Name     string `json:"eventname" validate:"required"`
	ObjectID int64  `json:"objectid" validate:"gt=0"`
	CourseID int64  `json:"courseid,omitempty" validate:"gte=0"`
	ModName  string `json:"modname,omitempty" validate:"omitempty,alphanum,lowercase"`
}

var v = validator.New()

// Invalidator evicts cache entries affected by events.
type Invalidator struct {
	env *rewrite.Env
}

// New returns an Invalidator over env.
func New(env *rewrite.Env) *Invalidator { return &Invalidator{env: env} }

// Handle processes ev and returns the number of cached entries evicted.
func (x *Invalidator) Handle(ctx context.Context, ev Event) (int, error) {
	if err := v.Struct(ev); err != nil {
		return 0, fmt.Errorf("invalid event: %w", err)
	}

	var (
		keys  []string
		purge bool
	)
	switch ev.Name {
	case CourseUpdated:
		keys = x.courseKeys(ctx, ev.ObjectID)
	case CourseDeleted:
		keys, purge = x.courseKeys(ctx, ev.ObjectID), true
	case CategoryUpdated:
		keys = categoryKeys(ev.ObjectID)
	case CourseModuleUpdated:
		keys = x.moduleKeys(ctx, ev)
	case CourseModuleDeleted:
		keys, purge = x.moduleKeys(ctx, ev), true
	case CourseSectionUpdated:
		keys = x.sectionKeys(ctx, ev.CourseID)
	case UserUpdated:
		keys = userKeys(ev.ObjectID, ev.CourseID)
	default:
		return 0, fmt.Errorf("%q: %w", ev.Name, ErrUnknownEvent)
	}

	evicted := 0
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		k = x.env.WithMount(k)
		if x.env.Cache.Forget(ctx, k) {
			evicted++
		}
		if purge && x.env.History != nil {
			if err := x.env.History.DeleteByUnclean(ctx, k); err != nil {
				zap.L().Error("history purge failed", zap.String("unclean", k), zap.Error(err))
			}
		}
	}

	metrics.InvalidationsTotal.WithLabelValues(ev.Name).Inc()
	zap.L().Info("cache invalidated",
		zap.String("event", ev.Name),
		zap.Int64("object", ev.ObjectID),
		zap.Int("candidates", len(keys)),
		zap.Int("evicted", evicted))
	return evicted, nil
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// courseKeys covers the course page, its participants list, its section
// pages, every activity listing, and every activity in it.  A shortname
// change touches all of them.
func (x *Invalidator) courseKeys(ctx context.Context, courseID int64) []string {
	c := id(courseID)
	keys := []string{
		"/course/view.php?id=" + c,
		"/user/index.php?id=" + c,
		"/user/?id=" + c,
	}
	types, err := x.env.Resources.ModuleTypes(ctx)
	if err != nil {
		zap.L().Error("module types lookup failed", zap.Error(err))
	}
	for _, t := range types {
		keys = append(keys, "/mod/"+t+"/index.php?id="+c, "/mod/"+t+"/?id="+c)
	}
	return append(keys, x.sectionKeys(ctx, courseID)...)
}

func categoryKeys(categoryID int64) []string {
	c := id(categoryID)
	return []string{
		"/course/index.php?categoryid=" + c,
		"/course/?categoryid=" + c,
	}
}

// moduleKeys covers the changed activity and its siblings, whose tokens
// may change when a title starts or stops being unique.
func (x *Invalidator) moduleKeys(ctx context.Context, ev Event) []string {
	courseID, modname := ev.CourseID, ev.ModName
	if cm, err := x.env.Resources.ModuleByID(ctx, ev.ObjectID); err == nil {
		courseID, modname = cm.Course, cm.ModName
	} else if !errors.Is(err, resource.ErrNotFound) {
		zap.L().Error("course module lookup failed", zap.Int64("cmid", ev.ObjectID), zap.Error(err))
	}

	var keys []string
	if modname != "" {
		keys = append(keys, "/mod/"+modname+"/view.php?id="+id(ev.ObjectID))
	}
	if courseID > 0 {
		keys = append(keys, x.moduleViews(ctx, courseID)...)
	}
	return keys
}

// sectionKeys covers section pages and every activity in the course.
func (x *Invalidator) sectionKeys(ctx context.Context, courseID int64) []string {
	if courseID <= 0 {
		return nil
	}
	c := id(courseID)
	var keys []string
	sections, err := x.env.Resources.Sections(ctx, courseID)
	if err != nil {
		zap.L().Error("sections lookup failed", zap.Int64("course", courseID), zap.Error(err))
	}
	for _, s := range sections {
		keys = append(keys, "/course/view.php?id="+c+"&section="+strconv.Itoa(s.Num))
	}
	return append(keys, x.moduleViews(ctx, courseID)...)
}

func (x *Invalidator) moduleViews(ctx context.Context, courseID int64) []string {
	mods, err := x.env.Resources.CourseModules(ctx, courseID)
	if err != nil {
		zap.L().Error("course modules lookup failed", zap.Int64("course", courseID), zap.Error(err))
		return nil
	}
	keys := make([]string, 0, len(mods))
	for _, cm := range mods {
		keys = append(keys, "/mod/"+cm.ModName+"/view.php?id="+id(cm.ID))
	}
	return keys
}

// userKeys covers the profile and forum post pages.  The in-course profile
// is only covered for the course the event names.
func userKeys(userID, courseID int64) []string {
	u := id(userID)
	keys := []string{
		"/user/profile.php?id=" + u,
		"/mod/forum/user.php?id=" + u,
		"/mod/forum/user.php?id=" + u + "&mode=discussions",
	}
	if courseID > 0 {
		keys = append(keys, "/user/view.php?id="+u+"&course="+id(courseID))
	}
	return keys
}
