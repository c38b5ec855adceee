// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render call.  The view engine
// seeds defaults, handlers push page-specific tags, and the base layout
// emits the result.
//
// Features
// --------
//   - SetTitle  – single <title> tag (last call wins), suffixed with the
//     site name.
//   - Meta      – <meta name content> pairs, deduplicated by name.
//   - Link      – <link rel href> pairs, deduplicated by rel+href.
//   - HTML      – concatenated, escaped markup for the layout.
//
// Values are escaped on the way in, so callers never hand raw markup to the
// layout.
package head

import (
	"html/template"
	"strings"
)

// Builder is used by one goroutine per render, so it carries no lock.
type Builder struct {
	site  string
	title string

	metas []string
	links []string

	seen map[string]struct{}
}

// New returns a Builder whose titles are suffixed with site.
func New(site string) *Builder {
	return &Builder{site: site, seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helper
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns the plain title text, e.g. "Sign in · Adept".
func (b *Builder) Title() string {
	switch {
	case b.title == "":
		return b.site
	case b.site == "":
		return b.title
	default:
		return b.title + " · " + b.site
	}
}

// ------------------------------------------------------------------
// Slice helpers with deduplication
// ------------------------------------------------------------------

// Meta adds <meta name="…" content="…">.  A repeated name is ignored.
func (b *Builder) Meta(name, content string) {
	b.add("meta:"+name, &b.metas,
		`<meta name="`+esc(name)+`" content="`+esc(content)+`">`)
}

// Link adds <link rel="…" href="…">.
func (b *Builder) Link(rel, href string) {
	b.add("link:"+rel+"|"+href, &b.links,
		`<link rel="`+esc(rel)+`" href="`+esc(href)+`">`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// ------------------------------------------------------------------
// Rendering helper called from the layout
// ------------------------------------------------------------------

// HTML returns the <title>, meta, and link tags in that order.
func (b *Builder) HTML() template.HTML {
	var sb strings.Builder
	sb.WriteString("<title>" + esc(b.Title()) + "</title>\n")
	for _, m := range b.metas {
		sb.WriteString(m + "\n")
	}
	for _, l := range b.links {
		sb.WriteString(l + "\n")
	}
	return template.HTML(sb.String())
}

func esc(s string) string { return template.HTMLEscapeString(s) }
