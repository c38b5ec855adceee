// components/pages/pages.go
//
// Content pages that read the caller's identity but never change it.
//
// Context
//   /          – optional identity; anonymous visitors see sign-in links.
//   /profile   – signed-in visitors with a profile only.
//   /example   – same gate as /profile; a stand-in for any protected page.
//   /healthz   – liveness probe, outside the gate.
//
// The gate middleware attaches the identity, so handlers only read
// auth.UserFrom and render.
//
//------------------------------------------------------------------------------

package pages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/component"
	"github.com/yanizio/adept-auth/internal/routing"
	"github.com/yanizio/adept-auth/internal/view"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the content pages.
type Component struct {
	svc component.Services
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "pages" }

// Init keeps the shared services.
func (c *Component) Init(svc component.Services) error {
	if svc.Gate == nil || svc.Views == nil {
		return errors.New("pages component: missing services")
	}
	c.svc = svc
	return nil
}

// Routes adds the page endpoints to r.
func (c *Component) Routes(r chi.Router) {
	r.Get(routing.Health, healthz)
	r.With(c.svc.Gate.Optional).Get(routing.Home, c.page("home", "Home"))
	r.With(c.svc.Gate.Require).Get(routing.Profile, c.page("profile", "Profile"))
	r.With(c.svc.Gate.Require).Get(routing.Example, c.page("example", "Example"))
}

func init() { component.Register(&Component{}) }

// page renders a template that needs nothing beyond the identity.
func (c *Component) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.UserFrom(r.Context())
		if err := c.svc.Views.Render(w, r, http.StatusOK, name, view.Page{Title: title, User: u}); err != nil {
			c.svc.Log.Errorw("render page", "page", name, "err", err)
			c.svc.Views.Error(w, r, http.StatusInternalServerError, "Something went wrong.  Please try again.")
		}
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok\n"))
}
