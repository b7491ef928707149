// internal/format/registry.go
//
// Course-format extension registry.
//
// Context
// -------
// A course format decides how a course's sections and activities are laid
// out, and may want its own slug scheme for them.  A format handler plugs
// into both directions of the URL transform:
//
//   • Cleaner   - forward: activity or section → sub-path below
//                 /course/<shortname>/.
//   • Uncleaner - backward: remaining path segments → activity or section.
//
// Handlers for third-party formats call Register in an init() function.
// Lookup order in Resolve is external registrations first, then the handlers
// bundled with the engine, then nil (callers fall back to the default
// `<modname>/<id>-<slug>` scheme).
//
// Notes
// -----
// • A value implementing only one direction is rejected with
//   ErrIncompleteHandler and a warning; the format stays unhandled.
// • Safe for concurrent use.
// • Oxford commas, two spaces after periods.
package format

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurls/internal/metrics"
	"github.com/yanizio/cleanurls/internal/resource"
)

// ErrIncompleteHandler is returned by Register for one-direction handlers.
var ErrIncompleteHandler = errors.New("format handler must implement Cleaner and Uncleaner")

// Cleaner builds sub-paths (no leading slash) below /course/<shortname>/.
type Cleaner interface {
	CleanModule(ctx context.Context, rs resource.Store, c *resource.Course, cm *resource.CourseModule) (string, bool)
	CleanSection(ctx context.Context, rs resource.Store, c *resource.Course, section int) (string, bool)
}

// Target is what an Uncleaner resolved.  Module is nil for a section.
type Target struct {
	Consumed int
	Module   *resource.CourseModule
	Section  int
}

// Uncleaner resolves the segments following /course/<shortname>/.
type Uncleaner interface {
	Unclean(ctx context.Context, rs resource.Store, c *resource.Course, segments []string) (Target, bool)
}

// Handler is a complete format handler.
type Handler interface {
	Cleaner
	Uncleaner
}

// Registry maps format names to handlers.
type Registry struct {
	mu       sync.RWMutex
	external map[string]Handler
	bundled  map[string]Handler
}

// NewRegistry returns a registry holding the bundled handlers.
func NewRegistry() *Registry {
	return &Registry{
		external: map[string]Handler{},
		bundled: map[string]Handler{
			"singleactivity": SingleActivity{},
			"onetopic":       FlatSections{},
			"flexsections":   NestedSections{},
		},
	}
}

// Register adds impl for the named format.  impl must implement Handler.
func (r *Registry) Register(name string, impl any) error {
	_, isCleaner := impl.(Cleaner)
	_, isUncleaner := impl.(Uncleaner)
	if !isCleaner || !isUncleaner {
		metrics.RejectedHandlersTotal.Inc()
		zap.L().Warn("course format handler rejected",
			zap.String("format", name),
			zap.Bool("cleaner", isCleaner),
			zap.Bool("uncleaner", isUncleaner))
		return fmt.Errorf("format %q: %w", name, ErrIncompleteHandler)
	}
	r.mu.Lock()
	r.external[name] = impl.(Handler)
	r.mu.Unlock()
	return nil
}

// Resolve returns the handler for a format name, or nil.
func (r *Registry) Resolve(name string) Handler {
	if r == nil || name == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.external[name]; ok {
		return h
	}
	return r.bundled[name]
}

// Default is the process-wide registry extensions register into.
var Default = NewRegistry()

// Register adds impl to Default.  Call from init().
func Register(name string, impl any) error { return Default.Register(name, impl) }
