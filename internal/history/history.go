// internal/history/history.go
//
// Durable clean → unclean history.
//
// Context
// -------
// The two-way cache forgets entries on eviction and on resource events.
// History does not: every mapping the cleaner ever issued is recorded here,
// keyed by the clean string, so a pretty link handed out before a rename
// still reaches the resource it originally named.  A later mapping for the
// same clean string replaces the earlier one.
//
// The uncleaner consults history only after the tree walk fails to resolve
// the full path; see internal/uncleaner for the ordering.
//
// Notes
// -----
// • Records are never auto-evicted.
// • Oxford commas, two spaces after periods.
package history

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when no record exists.
var ErrNotFound = errors.New("history record not found")

// Record is one stored mapping.
type Record struct {
	Clean        string    `db:"clean"`
	Unclean      string    `db:"unclean"`
	TimeModified time.Time `db:"timemodified"`
}

// Store is the history contract.
type Store interface {
	Put(ctx context.Context, clean, unclean string) error
	Get(ctx context.Context, clean string) (*Record, error)
	DeleteByUnclean(ctx context.Context, unclean string) error
}

// Memory is an in-process Store for tests and single-process deployments
// that accept losing history on restart.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]Record
	now  func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{rows: map[string]Record{}, now: time.Now}
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, clean, unclean string) error {
	m.mu.Lock()
	m.rows[clean] = Record{Clean: clean, Unclean: unclean, TimeModified: m.now()}
	m.mu.Unlock()
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, clean string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rows[clean]; ok {
		return &r, nil
	}
	return nil, ErrNotFound
}

// DeleteByUnclean implements Store.
func (m *Memory) DeleteByUnclean(_ context.Context, unclean string) error {
	m.mu.Lock()
	for k, r := range m.rows {
		if r.Unclean == unclean {
			delete(m.rows, k)
		}
	}
	m.mu.Unlock()
	return nil
}

// Len reports the number of records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
