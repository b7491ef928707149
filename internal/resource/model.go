// internal/resource/model.go
//
// Read-only resource records.
//
// Context
// -------
// The resource store (courses, categories, users, activities, sections) is
// owned by the learning site.  The URL engine only reads the handful of
// columns it needs to build and resolve slugs, so these structs mirror that
// subset and nothing more.
//
// Notes
// -----
// • `db` tags match the column aliases used by resource/sqlstore.
// • Category.Path is the materialised ancestor chain, e.g. "/3/9".
package resource

import (
	"strconv"
	"strings"
)

// Course mirrors the columns of one course row used for URLs.
type Course struct {
	ID        int64  `db:"id"`
	Shortname string `db:"shortname"`
	Fullname  string `db:"fullname"`
	Format    string `db:"format"`
	Category  int64  `db:"category"`
}

// Category mirrors one course category row.
type Category struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Parent int64  `db:"parent"`
	Path   string `db:"path"`
}

// AncestorIDs returns the category ids from the top level down to and
// including this category.
func (c Category) AncestorIDs() []int64 {
	var ids []int64
	for _, p := range strings.Split(c.Path, "/") {
		if p == "" {
			continue
		}
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || ids[len(ids)-1] != c.ID {
		ids = append(ids, c.ID)
	}
	return ids
}

// User mirrors the user columns needed for username slugs.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

// CourseModule is one activity placed in a course.
type CourseModule struct {
	ID         int64  `db:"id"`
	Course     int64  `db:"course"`
	ModName    string `db:"modname"`
	Instance   int64  `db:"instance"`
	Name       string `db:"name"`
	Section    int64  `db:"section"`
	SectionNum int    `db:"sectionnum"`
}

// Section is one course section.  ParentNum is only meaningful for nested
// layouts; zero means top level.
type Section struct {
	ID        int64  `db:"id"`
	Course    int64  `db:"course"`
	Num       int    `db:"section"`
	Name      string `db:"name"`
	ParentNum int    `db:"parent"`
}

// Title returns the section name, or the generated default used by the
// site when the name is empty.
func (s Section) Title() string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	if s.Num == 0 {
		return "General"
	}
	return "Topic " + strconv.Itoa(s.Num)
}
