// internal/resource/store.go
//
// Resource store contract.
//
// The cleaner needs id → name lookups, the uncleaner needs name → id
// lookups, and the course-format handlers need the section and activity
// lists of a course.  Implementations: Memory (tests, fixtures) and
// sqlstore.Store (the site database).
package resource

import (
	"context"
	"errors"
)

// ParticipantsSegment is the keyword below /course/<shortname>/ that names
// the course's participants.
const ParticipantsSegment = "user"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("resource not found")

// Store is the read-only boundary to the site's records.
type Store interface {
	CourseByID(ctx context.Context, id int64) (*Course, error)
	CourseByShortname(ctx context.Context, shortname string) (*Course, error)
	CategoryByID(ctx context.Context, id int64) (*Category, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	ModuleByID(ctx context.Context, cmid int64) (*CourseModule, error)
	CourseModules(ctx context.Context, courseID int64) ([]CourseModule, error)
	Sections(ctx context.Context, courseID int64) ([]Section, error)
	ModuleTypes(ctx context.Context) ([]string, error)
}

// IsModuleType reports whether name is an installed activity type.
func IsModuleType(ctx context.Context, s Store, name string) bool {
	types, err := s.ModuleTypes(ctx)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == name {
			return true
		}
	}
	return false
}
