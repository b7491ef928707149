package format

import (
	"context"
	"strings"

	"github.com/yanizio/cleanurls/internal/resource"
)

// NestedSections lays a course out as a tree of sections of arbitrary
// depth: /course/<shortname>/<section>/<subsection>/…/<activity>.
// Section 0 is always top level and never has children.
type NestedSections struct{}

// children returns the sections below parent.  parent < 0 selects the top
// level.
func children(all []resource.Section, parent int) []resource.Section {
	var out []resource.Section
	for _, s := range all {
		switch {
		case parent < 0 && (s.ParentNum == 0 || s.Num == 0):
			out = append(out, s)
		case parent > 0 && s.ParentNum == parent && s.Num != parent:
			out = append(out, s)
		}
	}
	return out
}

func siblingsOf(all []resource.Section, s resource.Section) []resource.Section {
	if topLevel(s) {
		return children(all, -1)
	}
	return children(all, s.ParentNum)
}

func topLevel(s resource.Section) bool { return s.Num == 0 || s.ParentNum == 0 }

// childTokens returns the tokens of the sections below num.  An activity in
// section num must not reuse one, since descent into subsections is tried
// before activities.
func childTokens(all []resource.Section, num int) reserved {
	kids := children(all, num)
	r := make(reserved, len(kids))
	for _, k := range kids {
		r[sectionToken(k, kids, nil)] = true
	}
	return r
}

// sectionPath returns the slash-joined tokens from the top level down to
// section num.  Top-level tokens avoid the words in top.
func sectionPath(all []resource.Section, num int, top reserved) (string, bool) {
	var tokens []string
	seen := map[int]bool{}
	cur, ok := sectionByNum(all, num)
	for ok {
		if seen[cur.Num] {
			return "", false // parent cycle
		}
		seen[cur.Num] = true
		if topLevel(*cur) {
			tokens = append(tokens, sectionToken(*cur, siblingsOf(all, *cur), top))
			break
		}
		tokens = append(tokens, sectionToken(*cur, siblingsOf(all, *cur), nil))
		cur, ok = sectionByNum(all, cur.ParentNum)
	}
	if !ok {
		return "", false
	}
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
	return strings.Join(tokens, "/"), true
}

// CleanModule implements Cleaner.
func (NestedSections) CleanModule(ctx context.Context, rs resource.Store, c *resource.Course, cm *resource.CourseModule) (string, bool) {
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return "", false
	}
	p, ok := sectionPath(sections, cm.SectionNum, courseLevel(ctx, rs))
	if !ok {
		return "", false
	}
	all, err := rs.CourseModules(ctx, c.ID)
	if err != nil {
		storeFailed("course modules", c.ID, err)
		return "", false
	}
	scope := modulesInSection(all, cm.SectionNum)
	return p + "/" + activityToken(*cm, scope, childTokens(sections, cm.SectionNum)), true
}

// CleanSection implements Cleaner.
func (NestedSections) CleanSection(ctx context.Context, rs resource.Store, c *resource.Course, section int) (string, bool) {
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return "", false
	}
	return sectionPath(sections, section, courseLevel(ctx, rs))
}

// Unclean implements Uncleaner.  It descends through sections for as long
// as segments name a child section, then tries one activity token.
func (NestedSections) Unclean(ctx context.Context, rs resource.Store, c *resource.Course, segments []string) (Target, bool) {
	sections, err := rs.Sections(ctx, c.ID)
	if err != nil {
		storeFailed("sections", c.ID, err)
		return Target{}, false
	}

	top := courseLevel(ctx, rs)
	cur, consumed := -1, 0
	for consumed < len(segments) && cur != 0 {
		var taken reserved
		if cur < 0 {
			taken = top
		}
		sec, ok := matchSection(segments[consumed], children(sections, cur), taken)
		if !ok {
			break
		}
		cur = sec.Num
		consumed++
	}
	if cur < 0 {
		return Target{}, false
	}

	if consumed < len(segments) {
		all, err := rs.CourseModules(ctx, c.ID)
		if err != nil {
			storeFailed("course modules", c.ID, err)
		} else if cm, ok := matchActivity(segments[consumed], modulesInSection(all, cur), childTokens(sections, cur)); ok {
			return Target{Consumed: consumed + 1, Module: cm}, true
		}
	}
	return Target{Consumed: consumed, Section: cur}, true
}
