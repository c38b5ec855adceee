// internal/form/validate.go
//
// Forms subsystem: server-side validation and sanitization.
//
// Context
//   The renderer outputs HTML containing a CSRF token.  When the browser
//   posts user input, this file verifies the submission: CSRF, required
//   fields, lengths, regex patterns, and any extra validator rules.  It
//   returns a clean map that handlers can trust.
//
// Workflow
//   •  ValidateForm retrieves the FormDef and checks CSRF before per-field
//      validation.
//   •  Required, length, and Rules checks run through go-playground's
//      validator.  Patterns use the regexp compiled at load.
//   •  Text fields are stripped of markup with bluemonday.  Passwords are
//      passed through untouched.
//   •  Errors are captured in []ErrorField so templates can highlight exact
//      issues.  The field's `error` message wins over the defaults.
//
// Style
//   Full sentences, two space spacing, Oxford comma, and IDs like “CSRF.”
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// CSRFField is the hidden input name carrying the token.
const CSRFField = "csrf_token"

var (
	validate = validator.New()
	strip    = bluemonday.StrictPolicy()
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so the template can render
// a field-level message.  Name is "" for form-level failures such as CSRF.
type ErrorField struct {
	Name    string // field name
	Message string // user-facing message
}

// validationError wraps []ErrorField and satisfies the error interface.
//
// It allows handlers to distinguish user input errors from system failures
// via errors.As / IsValidationError.
type validationError struct{ Fields []ErrorField }

func (ve validationError) Error() string { return "form validation failed" }

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// ValidateForm validates posted form data for formID.  It returns sanitized
// values and any field errors.  A non-empty error slice means the form must
// be rendered again.
func ValidateForm(formID string, posted url.Values) (map[string]string, []ErrorField) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, []ErrorField{{Name: "", Message: "Unknown form."}}
	}

	if !VerifyToken(posted.Get(CSRFField)) {
		return nil, []ErrorField{{"", "Security token invalid.  Please refresh and try again."}}
	}

	var errs []ErrorField
	clean := make(map[string]string, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		val, msg := checkValue(f, posted.Get(f.Name))
		if msg != "" {
			errs = append(errs, ErrorField{f.Name, msg})
			continue
		}
		clean[f.Name] = val
	}
	return clean, errs
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

// checkValue returns the cleaned value or a user-facing message.
func checkValue(f *FieldDef, raw string) (string, string) {
	val := raw
	if f.Type != "password" {
		val = strings.TrimSpace(raw)
	}

	if val == "" {
		if f.Required {
			return "", message(f, "This field is required.")
		}
		return "", ""
	}

	if tag := f.tag(); tag != "" {
		if err := validate.Var(val, tag); err != nil {
			return "", message(f, defaultMessage(f, err))
		}
	}
	if f.re != nil && !f.re.MatchString(val) {
		return "", message(f, "Input does not match required format.")
	}

	if f.Type == "text" {
		val = html.UnescapeString(strip.Sanitize(val))
	}
	return val, ""
}

// tag builds the validator tag for a non-empty value.
func (f *FieldDef) tag() string {
	var parts []string
	if f.MinLength > 0 {
		parts = append(parts, "min="+strconv.Itoa(f.MinLength))
	}
	if f.MaxLength > 0 {
		parts = append(parts, "max="+strconv.Itoa(f.MaxLength))
	}
	if f.Rules != "" {
		parts = append(parts, f.Rules)
	}
	return strings.Join(parts, ",")
}

func defaultMessage(f *FieldDef, err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Invalid input."
	}
	switch verrs[0].Tag() {
	case "min":
		return fmt.Sprintf("Must be at least %d characters.", f.MinLength)
	case "max":
		return fmt.Sprintf("Must be at most %d characters.", f.MaxLength)
	case "email":
		return "Enter a valid email address."
	default:
		return "Invalid input."
	}
}

func message(f *FieldDef, fallback string) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return fallback
}

// checkRules reports tags the validator does not know.  The validator
// panics on unknown tags, so the probe runs under recover.
func checkRules(rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	_ = validate.Var("x", rules)
	return nil
}
