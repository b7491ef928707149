package format

import (
	"context"

	"github.com/yanizio/cleanurls/internal/resource"
)

// FlatSections lays a course out as one level of sections, each holding
// activities: /course/<shortname>/<section>/<activity>.
type FlatSections struct{}

// CleanModule implements Cleaner.
func (FlatSections) CleanModule(ctx context.Context, rs resource.Store, c *resource.Course, cm *resource.CourseModule) (string, bool) {
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return "", false
	}
	sec, ok := sectionByNum(sections, cm.SectionNum)
	if !ok {
		return "", false
	}
	all, err := rs.CourseModules(ctx, c.ID)
	if err != nil {
		storeFailed("course modules", c.ID, err)
		return "", false
	}
	return sectionToken(*sec, sections, courseLevel(ctx, rs)) + "/" +
		activityToken(*cm, modulesInSection(all, cm.SectionNum), nil), true
}

// CleanSection implements Cleaner.
func (FlatSections) CleanSection(ctx context.Context, rs resource.Store, c *resource.Course, section int) (string, bool) {
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return "", false
	}
	sec, ok := sectionByNum(sections, section)
	if !ok {
		return "", false
	}
	return sectionToken(*sec, sections, courseLevel(ctx, rs)), true
}

// Unclean implements Uncleaner.
func (FlatSections) Unclean(ctx context.Context, rs resource.Store, c *resource.Course, segments []string) (Target, bool) {
	if len(segments) == 0 {
		return Target{}, false
	}
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return Target{}, false
	}
	sec, ok := matchSection(segments[0], sections, courseLevel(ctx, rs))
	if !ok {
		return Target{}, false
	}
	if len(segments) > 1 {
		all, err := rs.CourseModules(ctx, c.ID)
		if err != nil {
			storeFailed("course modules", c.ID, err)
		} else if cm, ok := matchActivity(segments[1], modulesInSection(all, sec.Num), nil); ok {
			return Target{Consumed: 2, Module: cm}, true
		}
	}
	return Target{Consumed: 1, Section: sec.Num}, true
}
