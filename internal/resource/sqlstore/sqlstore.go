// internal/resource/sqlstore/sqlstore.go
//
// SQL-backed resource store.
//
// Context
// -------
// Reads the site's own tables (prefix configurable, default "mdl_"):
//
//	course              (id, shortname, fullname, format, category)
//	course_categories   (id, name, parent, path)
//	user                (id, username, deleted)
//	modules             (id, name, visible)
//	course_modules      (id, course, module, instance, section)
//	course_sections     (id, course, section, name)
//	course_format_options (sectionid, name, value)  – nested-section parents
//	<modname>           (id, course, name)          – one table per activity type
//
// Workflow
// --------
//  1. Every lookup is one parameterised SELECT via sqlx.
//  2. Activity names live in per-type tables, so module lookups run a
//     second query against `<prefix><modname>`.  The table name is only
//     ever built from a name returned by ModuleTypes.
//  3. ModuleTypes is cached for typesTTL; concurrent reloads are collapsed
//     with singleflight.
//
// Notes
// -----
// • sql.ErrNoRows maps to resource.ErrNotFound.
// • Oxford commas, two spaces after periods.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/cleanurls/internal/resource"
)

const typesTTL = 5 * time.Minute

var modNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store implements resource.Store.
type Store struct {
	db     *sqlx.DB
	prefix string

	sfg      singleflight.Group
	mu       sync.RWMutex
	types    []string
	loadedAt time.Time
}

// New returns a Store reading tables named prefix+table.
func New(db *sqlx.DB, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

func (s *Store) t(name string) string { return s.prefix + name }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return resource.ErrNotFound
	}
	return err
}

// CourseByID implements resource.Store.
func (s *Store) CourseByID(ctx context.Context, id int64) (*resource.Course, error) {
	q := `SELECT id, shortname, fullname, format, category FROM ` + s.t("course") +
		` WHERE id = ?`
	var c resource.Course
	if err := s.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// CourseByShortname implements resource.Store.
func (s *Store) CourseByShortname(ctx context.Context, shortname string) (*resource.Course, error) {
	q := `SELECT id, shortname, fullname, format, category FROM ` + s.t("course") +
		` WHERE shortname = ? LIMIT 1`
	var c resource.Course
	if err := s.db.GetContext(ctx, &c, q, shortname); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// CategoryByID implements resource.Store.
func (s *Store) CategoryByID(ctx context.Context, id int64) (*resource.Category, error) {
	q := `SELECT id, name, parent, path FROM ` + s.t("course_categories") + ` WHERE id = ?`
	var c resource.Category
	if err := s.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UserByID implements resource.Store.  Deleted users are not found.
func (s *Store) UserByID(ctx context.Context, id int64) (*resource.User, error) {
	q := `SELECT id, username FROM ` + s.t("user") + ` WHERE id = ? AND deleted = 0`
	var u resource.User
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserByUsername implements resource.Store.
func (s *Store) UserByUsername(ctx context.Context, username string) (*resource.User, error) {
	q := `SELECT id, username FROM ` + s.t("user") +
		` WHERE username = ? AND deleted = 0 LIMIT 1`
	var u resource.User
	if err := s.db.GetContext(ctx, &u, q, username); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) moduleSelect() string {
	return `SELECT cm.id, cm.course, m.name AS modname, cm.instance, cm.section,` +
		` COALESCE(cs.section, 0) AS sectionnum` +
		` FROM ` + s.t("course_modules") + ` cm` +
		` JOIN ` + s.t("modules") + ` m ON m.id = cm.module` +
		` LEFT JOIN ` + s.t("course_sections") + ` cs ON cs.id = cm.section`
}

// ModuleByID implements resource.Store.
func (s *Store) ModuleByID(ctx context.Context, cmid int64) (*resource.CourseModule, error) {
	var cm resource.CourseModule
	if err := s.db.GetContext(ctx, &cm, s.moduleSelect()+` WHERE cm.id = ?`, cmid); err != nil {
		return nil, notFound(err)
	}
	table, err := s.instanceTable(ctx, cm.ModName)
	if err != nil {
		return nil, err
	}
	q := `SELECT name FROM ` + table + ` WHERE id = ?`
	if err := s.db.GetContext(ctx, &cm.Name, q, cm.Instance); err != nil {
		return nil, notFound(err)
	}
	return &cm, nil
}

// CourseModules implements resource.Store.
func (s *Store) CourseModules(ctx context.Context, courseID int64) ([]resource.CourseModule, error) {
	var cms []resource.CourseModule
	q := s.moduleSelect() + ` WHERE cm.course = ? ORDER BY cm.id`
	if err := s.db.SelectContext(ctx, &cms, q, courseID); err != nil {
		return nil, err
	}

	names := make(map[string]map[int64]string)
	for i := range cms {
		mod := cms[i].ModName
		if _, done := names[mod]; !done {
			byInstance, err := s.instanceNames(ctx, mod, courseID)
			if err != nil {
				return nil, err
			}
			names[mod] = byInstance
		}
		cms[i].Name = names[mod][cms[i].Instance]
	}
	return cms, nil
}

func (s *Store) instanceNames(ctx context.Context, modName string, courseID int64) (map[int64]string, error) {
	table, err := s.instanceTable(ctx, modName)
	if err != nil {
		return nil, err
	}
	rows := make([]struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}, 0, 8)
	q := `SELECT id, name FROM ` + table + ` WHERE course = ?`
	if err := s.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out, nil
}

// Sections implements resource.Store.
func (s *Store) Sections(ctx context.Context, courseID int64) ([]resource.Section, error) {
	q := `SELECT cs.id, cs.course, cs.section, COALESCE(cs.name, '') AS name,` +
		` COALESCE(CAST(fo.value AS SIGNED), 0) AS parent` +
		` FROM ` + s.t("course_sections") + ` cs` +
		` LEFT JOIN ` + s.t("course_format_options") + ` fo` +
		` ON fo.sectionid = cs.id AND fo.name = 'parent'` +
		` WHERE cs.course = ? ORDER BY cs.section`
	var out []resource.Section
	if err := s.db.SelectContext(ctx, &out, q, courseID); err != nil {
		return nil, err
	}
	return out, nil
}

// ModuleTypes implements resource.Store.
func (s *Store) ModuleTypes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	if s.types != nil && time.Since(s.loadedAt) < typesTTL {
		types := s.types
		s.mu.RUnlock()
		return types, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.sfg.Do("types", func() (interface{}, error) {
		var types []string
		q := `SELECT name FROM ` + s.t("modules") + ` WHERE visible = 1 ORDER BY name`
		if err := s.db.SelectContext(ctx, &types, q); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.types = types
		s.loadedAt = time.Now()
		s.mu.Unlock()
		zap.L().Debug("module types loaded", zap.Int("count", len(types)))
		return types, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Store) instanceTable(ctx context.Context, modName string) (string, error) {
	if !modNameRe.MatchString(modName) || !resource.IsModuleType(ctx, s, modName) {
		return "", fmt.Errorf("unknown module type %q: %w", modName, resource.ErrNotFound)
	}
	return s.t(modName), nil
}
