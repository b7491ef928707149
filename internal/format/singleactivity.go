package format

import (
	"context"

	"github.com/yanizio/cleanurls/internal/resource"
)

// SingleActivity serves courses built around one activity.  The activity
// hangs directly below the course: /course/<shortname>/<activity>.
type SingleActivity struct{}

// CleanModule implements Cleaner.
func (SingleActivity) CleanModule(ctx context.Context, rs resource.Store, c *resource.Course, cm *resource.CourseModule) (string, bool) {
	all, err := rs.CourseModules(ctx, c.ID)
	if err != nil {
		storeFailed("course modules", c.ID, err)
		return "", false
	}
	return activityToken(*cm, all, courseLevel(ctx, rs)), true
}

// CleanSection implements Cleaner.  The format has no sections to show.
func (SingleActivity) CleanSection(context.Context, resource.Store, *resource.Course, int) (string, bool) {
	return "", false
}

// Unclean implements Uncleaner.
func (SingleActivity) Unclean(ctx context.Context, rs resource.Store, c *resource.Course, segments []string) (Target, bool) {
	if len(segments) == 0 {
		return Target{}, false
	}
	all, err := rs.CourseModules(ctx, c.ID)
	if err != nil {
		storeFailed("course modules", c.ID, err)
		return Target{}, false
	}
	cm, ok := matchActivity(segments[0], all, courseLevel(ctx, rs))
	if !ok {
		return Target{}, false
	}
	return Target{Consumed: 1, Module: cm}, true
}
