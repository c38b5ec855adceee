// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot cmd/web builds one
// Services value and hands it to Mount, which initialises every component
// and lets it add routes to the shared router.
//
// Notes
// -----
// • Components are mounted in name order so route conflicts surface the
//   same way on every start.
// • Oxford commas, two spaces after periods.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Initializer receives the shared services once before routes are added.
type Initializer interface {
	Init(Services) error
}

// Component contract.
//
// Routes() adds page and form endpoints to r, e.g:
//
//	r.Get("/sign-in", c.signInGET)
//	r.With(c.svc.Limiter.Limit).Post("/sign-in", c.signInPOST)
type Component interface {
	Name() string
	Routes(r chi.Router)
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

// Mount initialises every registered component with svc and adds its
// routes to r.
func Mount(r chi.Router, svc Services) error {
	for _, c := range All() {
		if err := c.Init(svc); err != nil {
			return fmt.Errorf("component %s: init: %w", c.Name(), err)
		}
		svc.Log.Debugw("component mounted", "component", c.Name())
		c.Routes(r)
	}
	return nil
}
