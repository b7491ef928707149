// Package rewritetest builds a small in-memory site for transform tests.
//
// The site:
//
//	categories  3 "Sciences"  →  9 "CompSci"
//	course  7  "shortname"  topics          category 9
//	course  8  "nested"     flexsections    category 3
//	course 10  "single"     singleactivity  category 3
//	course 11  "collide"    topics          (clashes with static /course/collide)
//	course 12  "solo"       singleactivity  activity named like a keyword
//	course 13  "flat"       onetopic        section 1 named "Forum"
//	users   5 "theusername", 6 "12345" (numeric), 7 "first last" (unsafe)
//	modules 12 forum "A Test Forum" in course 7 section 1
//	        20 forum "Intro"        in course 8 "Week one"
//	        21 quiz  "Quiz"         in course 8 "Day one" (child of "Week one")
//	        22 page  "Day one"      in course 8 "Week one" (same name as its subsection)
//	        30 quiz  "Final exam"   in course 10
//	        40 quiz  "User"         in course 12
//	        50 forum "Notice board" in course 13 "Forum"
//
// The static tree holds the real entry points (view.php and friends) plus a
// directory at /course/collide.
package rewritetest

import (
	"github.com/spf13/afero"

	"github.com/yanizio/cleanurls/internal/cache"
	"github.com/yanizio/cleanurls/internal/format"
	"github.com/yanizio/cleanurls/internal/history"
	"github.com/yanizio/cleanurls/internal/resource"
	"github.com/yanizio/cleanurls/internal/rewrite"
	"github.com/yanizio/cleanurls/internal/staticfs"
	"github.com/yanizio/cleanurls/internal/weburl"
)

// Site is a fixture with handles on its parts for assertions.
type Site struct {
	Env       *rewrite.Env
	Resources *resource.Memory
	LRU       *cache.LRU
	History   *history.Memory
	FS        afero.Fs
}

// StaticFiles are created in every fixture tree.
var StaticFiles = []string{
	"/index.php",
	"/course/view.php",
	"/course/index.php",
	"/user/view.php",
	"/user/profile.php",
	"/user/index.php",
	"/mod/forum/view.php",
	"/mod/forum/index.php",
	"/mod/forum/user.php",
	"/mod/quiz/view.php",
	"/theme/styles.css",
	"/local/cleanurls/tests/webcheck.php",
}

// New returns the fixture mounted at wwwroot, e.g. "https://example.com".
func New(wwwroot string) *Site {
	m := resource.NewMemory("forum", "quiz", "page", "assign")

	m.AddCategory(resource.Category{ID: 3, Name: "Sciences", Path: "/3"})
	m.AddCategory(resource.Category{ID: 9, Name: "CompSci", Parent: 3, Path: "/3/9"})

	m.AddCourse(resource.Course{ID: 7, Shortname: "shortname", Fullname: "Short Name", Format: "topics", Category: 9})
	m.AddCourse(resource.Course{ID: 8, Shortname: "nested", Format: "flexsections", Category: 3})
	m.AddCourse(resource.Course{ID: 10, Shortname: "single", Format: "singleactivity", Category: 3})
	m.AddCourse(resource.Course{ID: 11, Shortname: "collide", Format: "topics", Category: 3})
	m.AddCourse(resource.Course{ID: 12, Shortname: "solo", Format: "singleactivity", Category: 3})
	m.AddCourse(resource.Course{ID: 13, Shortname: "flat", Format: "onetopic", Category: 3})

	m.AddUser(resource.User{ID: 5, Username: "theusername"})
	m.AddUser(resource.User{ID: 6, Username: "12345"})
	m.AddUser(resource.User{ID: 7, Username: "first last"})

	m.AddSection(resource.Section{ID: 700, Course: 7, Num: 0})
	m.AddSection(resource.Section{ID: 701, Course: 7, Num: 1})
	m.AddSection(resource.Section{ID: 800, Course: 8, Num: 0})
	m.AddSection(resource.Section{ID: 801, Course: 8, Num: 1, Name: "Week one"})
	m.AddSection(resource.Section{ID: 802, Course: 8, Num: 2, Name: "Day one", ParentNum: 1})
	m.AddSection(resource.Section{ID: 1300, Course: 13, Num: 0})
	m.AddSection(resource.Section{ID: 1301, Course: 13, Num: 1, Name: "Forum"})

	m.AddModule(resource.CourseModule{ID: 12, Course: 7, ModName: "forum", Instance: 1, Name: "A Test Forum", Section: 701})
	m.AddModule(resource.CourseModule{ID: 20, Course: 8, ModName: "forum", Instance: 2, Name: "Intro", Section: 801})
	m.AddModule(resource.CourseModule{ID: 21, Course: 8, ModName: "quiz", Instance: 1, Name: "Quiz", Section: 802})
	m.AddModule(resource.CourseModule{ID: 22, Course: 8, ModName: "page", Instance: 1, Name: "Day one", Section: 801})
	m.AddModule(resource.CourseModule{ID: 30, Course: 10, ModName: "quiz", Instance: 2, Name: "Final exam"})
	m.AddModule(resource.CourseModule{ID: 40, Course: 12, ModName: "quiz", Instance: 3, Name: "User"})
	m.AddModule(resource.CourseModule{ID: 50, Course: 13, ModName: "forum", Instance: 3, Name: "Notice board", Section: 1301})

	fs := afero.NewMemMapFs()
	for _, f := range StaticFiles {
		_ = afero.WriteFile(fs, f, []byte("<?php\n"), 0o644)
	}
	_ = fs.MkdirAll("/course/collide", 0o755)

	lru := cache.NewLRU(1000)
	hist := history.NewMemory()

	return &Site{
		Env: &rewrite.Env{
			WWWRoot:   weburl.MustParse(wwwroot),
			Resources: m,
			Cache:     cache.NewTwoWay(lru),
			History:   hist,
			Static:    staticfs.New(fs),
			Formats:   format.NewRegistry(),
		},
		Resources: m,
		LRU:       lru,
		History:   hist,
		FS:        fs,
	}
}

// On returns the settings with cleaning and username rewriting on.
func On() *rewrite.Settings {
	return &rewrite.Settings{Enabled: true, CleanUsernames: true}
}
