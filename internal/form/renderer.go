// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef (from definition.go) the renderer converts the
//   definition into safe, accessible HTML markup.  It applies HTML5
//   validation attributes, injects a CSRF token, honours pre-fill data, and
//   prints server-side field errors beside the offending input.
//
// Workflow
//   •  RenderForm looks up the FormDef by ID and writes each field via
//      writeField.
//   •  Required, minlength, maxlength, pattern, autocomplete, and placeholder
//      attributes are attached where relevant.
//   •  A CSRF token from csrf.go is embedded as a hidden <input>.
//   •  The caller receives the final HTML as template.HTML so the surrounding
//      template does not double-escape the markup.
//
// Style
//   Output HTML is plain, with no framework classes, so pages can style via
//   element selectors or class hooks.  Each input gets id="fld-{name}" and is
//   wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Action is the form's POST target.  Empty posts back to the page.
	Action string
	// Prefill provides initial field values keyed by field name.
	Prefill map[string]string
	// Errors carries per-field messages from a failed submission.
	Errors map[string]string
}

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}

	token, err := GenerateToken()
	if err != nil {
		return "", fmt.Errorf("RenderForm: csrf token: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`<form class="adept-form" method="post"`)
	if opts.Action != "" {
		buf.WriteString(` action="` + html.EscapeString(opts.Action) + `"`)
	}
	buf.WriteString(` novalidate>` + "\n")

	for i := range fd.Fields {
		f := &fd.Fields[i]
		writeField(&buf, f, opts.Prefill[f.Name], opts.Errors[f.Name])
	}

	buf.WriteString(`<input type="hidden" name="` + CSRFField + `" value="` + html.EscapeString(token) + `">` + "\n")
	buf.WriteString(`<button type="submit">` + html.EscapeString(fd.Submit) + `</button>` + "\n")
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, val, errMsg string) {
	id := "fld-" + html.EscapeString(f.Name)

	buf.WriteString(`<div class="form-field">` + "\n")
	buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	buf.WriteString(`<input id="` + id + `" name="` + html.EscapeString(f.Name) + `" type="` + f.Type + `"`)
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Autocomplete != "" {
		buf.WriteString(` autocomplete="` + html.EscapeString(f.Autocomplete) + `"`)
	}
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
	if f.Pattern != "" {
		buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
	}
	// Passwords are never echoed back.
	if val != "" && f.Type != "password" {
		buf.WriteString(` value="` + html.EscapeString(val) + `"`)
	}
	if errMsg != "" {
		buf.WriteString(` aria-invalid="true"`)
	}
	buf.WriteString(`>` + "\n")

	buf.WriteString(`<span class="error" aria-live="polite">` + html.EscapeString(errMsg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
}
