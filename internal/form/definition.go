// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file that lives beside the
//   component that owns it, under `components/<comp>/forms/`.  Components
//   embed that directory and hand it to RegisterFS from their init hook.
//   The renderer and validator then look definitions up by ID, so markup
//   and server-side rules come from one source.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef parses one YAML document and validates structural rules.
//   •  RegisterFS walks an fs.FS, parses every “*.yaml”, and registers it.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.  Helper
//   comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// The form is uniquely identified by ID, namespaced by component, e.g.
// “auth/sign-in”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Submit string     `yaml:"submit"` // Button label; "Submit" when empty.
	Fields []FieldDef `yaml:"fields"` // Inputs in display order.
}

// FieldDef describes a single input control.  Validation metadata lives
// inline so the server enforces the same rules the browser hints at.
type FieldDef struct {
	Name         string `yaml:"name"`         // Submission key.  Required.
	Label        string `yaml:"label"`        // Human-readable label.  Required.
	Type         string `yaml:"type"`         // text, email, or password.
	Placeholder  string `yaml:"placeholder"`  // Optional placeholder text.
	Autocomplete string `yaml:"autocomplete"` // Optional autocomplete hint.
	Required     bool   `yaml:"required"`     // True if input is mandatory.
	MinLength    int    `yaml:"minlength"`    // ≥ 0, 0 means unset.
	MaxLength    int    `yaml:"maxlength"`    // ≥ 0, 0 means unset.
	Pattern      string `yaml:"pattern"`      // Regex the trimmed value must match.
	Rules        string `yaml:"rules"`        // Extra validator tags, e.g. "alphaunicode".
	ErrorMsg     string `yaml:"error"`        // Message for any failure on this field.

	re *regexp.Regexp
}

// supportedTypes lists the input types the renderer and validator know.
var supportedTypes = map[string]bool{"text": true, "email": true, "password": true}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps “comp/form” → *FormDef.  Written during init, read after.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by composite ID (“component/form”).
// The boolean is false when the ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Register validates fd and adds it to the registry, replacing any form
// with the same ID.
func Register(fd *FormDef) error {
	if err := validateFormDef(fd, fd.ID); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
	return nil
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef parses one YAML document, validates its structure, and
// returns a populated FormDef.  It never mutates the registry.  src names
// the document in error messages.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFS loads every “*.yaml” below root in fsys.  Components call it
// with their embedded forms directory.
func RegisterFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(d.Name()) != ".yaml" {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := ParseFormDef(raw, p)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		registryMu.Lock()
		registry[fd.ID] = fd
		registryMu.Unlock()
		return nil
	})
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via
// YAML tags alone.  It compiles field patterns as a side effect.
func validateFormDef(fd *FormDef, src string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", src)
	}
	if fd.Submit == "" {
		fd.Submit = "Submit"
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, src); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, src string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", src)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", src, f.Name)
	}
	if !supportedTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", src, f.Name, f.Type)
	}

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", src, f.Name, err)
		}
		f.re = re
	}
	if f.Rules != "" {
		if strings.ContainsAny(f.Rules, " \t") {
			return fmt.Errorf("form %s: field '%s' rules must not contain spaces", src, f.Name)
		}
		if err := checkRules(f.Rules); err != nil {
			return fmt.Errorf("form %s: field '%s' rules: %v", src, f.Name, err)
		}
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", src, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", src, f.Name)
	}
	return nil
}
