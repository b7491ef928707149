// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each HTTP surface of the front controller (the clean/unclean API, the
// self-test sentinel, the event intake) lives under components/<name> and
// calls component.Register() in an init() function.  The router mounts
// every component's Routes() at "/" after calling Init() with the Host.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/cleanurls/internal/engine"
	"github.com/yanizio/cleanurls/internal/invalidate"
)

// Host is what a component may use.  Defined here, implemented by the
// router, so components never import it.
type Host interface {
	Engine() *engine.Engine
	Invalidator() *invalidate.Invalidator
}

// Initializer receives the Host once, before Routes() is called.
type Initializer interface {
	Init(Host) error
}

// Component contract.
//
//	r := chi.NewRouter()
//	r.Get("/api/clean", clean)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
	Initializer
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
