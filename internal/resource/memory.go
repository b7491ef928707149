package resource

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store.  The Add methods replace by id.  Safe for
// concurrent use.
type Memory struct {
	mu         sync.RWMutex
	courses    map[int64]Course
	categories map[int64]Category
	users      map[int64]User
	modules    map[int64]CourseModule
	sections   map[int64][]Section
	types      []string
}

// NewMemory returns an empty store that knows the given activity types.
func NewMemory(moduleTypes ...string) *Memory {
	return &Memory{
		courses:    map[int64]Course{},
		categories: map[int64]Category{},
		users:      map[int64]User{},
		modules:    map[int64]CourseModule{},
		sections:   map[int64][]Section{},
		types:      append([]string(nil), moduleTypes...),
	}
}

func (m *Memory) AddCourse(c Course) *Memory {
	m.mu.Lock()
	m.courses[c.ID] = c
	m.mu.Unlock()
	return m
}

func (m *Memory) AddCategory(c Category) *Memory {
	m.mu.Lock()
	m.categories[c.ID] = c
	m.mu.Unlock()
	return m
}

func (m *Memory) AddUser(u User) *Memory {
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return m
}

// AddModule stores cm.  SectionNum is filled from the course sections when
// cm.Section matches a known section id.
func (m *Memory) AddModule(cm CourseModule) *Memory {
	m.mu.Lock()
	for _, s := range m.sections[cm.Course] {
		if s.ID == cm.Section {
			cm.SectionNum = s.Num
		}
	}
	m.modules[cm.ID] = cm
	m.mu.Unlock()
	return m
}

func (m *Memory) AddSection(s Section) *Memory {
	m.mu.Lock()
	list := m.sections[s.Course]
	replaced := false
	for i := range list {
		if list[i].ID == s.ID {
			list[i] = s
			replaced = true
		}
	}
	if !replaced {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Num < list[j].Num })
	m.sections[s.Course] = list
	m.mu.Unlock()
	return m
}

// RenameCourse changes a shortname in place, simulating an edit.
func (m *Memory) RenameCourse(id int64, shortname string) {
	m.mu.Lock()
	if c, ok := m.courses[id]; ok {
		c.Shortname = shortname
		m.courses[id] = c
	}
	m.mu.Unlock()
}

func (m *Memory) CourseByID(_ context.Context, id int64) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) CourseByShortname(_ context.Context, shortname string) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.courses {
		if c.Shortname == shortname {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CategoryByID(_ context.Context, id int64) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.categories[id]; ok {
		return &c, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ModuleByID(_ context.Context, cmid int64) (*CourseModule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cm, ok := m.modules[cmid]; ok {
		return &cm, nil
	}
	return nil, ErrNotFound
}

// CourseModules returns the course's activities ordered by id.
func (m *Memory) CourseModules(_ context.Context, courseID int64) ([]CourseModule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CourseModule
	for _, cm := range m.modules {
		if cm.Course == courseID {
			out = append(out, cm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Sections(_ context.Context, courseID int64) ([]Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Section(nil), m.sections[courseID]...), nil
}

func (m *Memory) ModuleTypes(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.types...), nil
}
