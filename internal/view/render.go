// internal/view/render.go
//
// Central view engine: embedded templates, func-map injection, and one
// parsed *template.Template* set per page.
//
// Public helpers
// --------------
//   - New     – parse every page under templates/ against layout.html.
//   - Render  – write a rendered page with a status code.
//   - Error   – render the error page, falling back to plain text.
//
// Layout
// ------
// Each page file defines a "content" block.  layout.html wraps it with the
// <head> tags from head.Builder, the navigation bar, and the error and
// notice banners.  Navigation and sign-out are hidden on the onboarding
// route so a half-registered user can only finish the profile form.
//
// Pages render into a buffer first, so a template failure never leaves a
// half-written response.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/head"
	"github.com/yanizio/adept-auth/internal/requestinfo"
	"github.com/yanizio/adept-auth/internal/routing"
)

//go:embed templates/*.html
var files embed.FS

const layout = "layout.html"

// Page is the data every template receives.
type Page struct {
	Title  string         // page title; the site name is appended
	Form   template.HTML  // rendered form, if any
	Errors []string       // banner errors
	Notice string         // banner notice
	Data   map[string]any // page-specific values

	// Filled by Render.
	Head         *head.Builder
	User         *auth.User
	Info         *requestinfo.Info
	HideControls bool
}

// Engine holds the parsed page sets.
type Engine struct {
	site  string
	pages map[string]*template.Template
}

// New parses the embedded templates.  site is appended to every title.
func New(site string) (*Engine, error) {
	entries, err := fs.ReadDir(files, "templates")
	if err != nil {
		return nil, err
	}

	e := &Engine{site: site, pages: make(map[string]*template.Template)}
	for _, ent := range entries {
		name := ent.Name()
		if name == layout || !strings.HasSuffix(name, ".html") {
			continue
		}
		t, err := template.New(layout).Funcs(funcMap()).
			ParseFS(files, "templates/"+layout, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		e.pages[strings.TrimSuffix(name, ".html")] = t
	}
	return e, nil
}

// Render executes page name with p and writes it with status.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	if p.User == nil {
		p.User, _ = auth.UserFrom(r.Context())
	}
	p.Info = requestinfo.FromContext(r.Context())
	p.HideControls = routing.IsUnder(r.URL.Path, routing.CompleteProfile)

	p.Head = head.New(e.site)
	p.Head.SetTitle(p.Title)
	p.Head.Meta("viewport", "width=device-width, initial-scale=1")
	if p.Form != "" {
		p.Head.Meta("robots", "noindex")
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, p); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Error renders the error page with msg.  Template failures degrade to
// http.Error so the client always gets a response.
func (e *Engine) Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	err := e.Render(w, r, status, "error", Page{
		Title:  http.StatusText(status),
		Errors: []string{msg},
	})
	if err != nil {
		zap.S().Errorw("render error page", "err", err)
		http.Error(w, msg, status)
	}
}
