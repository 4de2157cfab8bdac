// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>.  Components need
// runtime dependencies (renderer, handler, signer), so cmd/web builds them
// and adds them to a Registry instead of relying on init().  MountAll lets
// every component attach its routes to the shared router in name order.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes attaches page and API endpoints directly to r, e.g.:
//
//	r.Get("/register", c.show)
//	r.Post("/register", c.submit)
//
// Attaching rather than returning a sub-router lets several components
// share “/” without chi mount conflicts.
type Component interface {
	Name() string
	Routes(r chi.Router)
}

// Registry holds named components.  Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: map[string]Component{}}
}

// Register adds c.  Names must be unique.
func (g *Registry) Register(c Component) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.items[c.Name()]; dup {
		return fmt.Errorf("component %q already registered", c.Name())
	}
	g.items[c.Name()] = c
	return nil
}

// All returns every registered component sorted by name.
func (g *Registry) All() []Component {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Component, 0, len(g.items))
	for _, c := range g.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// MountAll attaches every component's routes to r.
func (g *Registry) MountAll(r chi.Router) {
	for _, c := range g.All() {
		c.Routes(r)
	}
}
