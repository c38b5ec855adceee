// internal/form/submit.go
//
// Forms subsystem: consolidated Submit helper.
//
// Context
//   Most handlers want one call that parses the POST body, validates input,
//   and returns the clean map or a validation error.  HandleSubmit provides
//   that so component code stays terse.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/http"
)

// HandleSubmit parses r, validates against formID, and returns the
// sanitized data.  On validation failure it returns the clean subset of
// values plus an error for which IsValidationError is true.  On unexpected
// failures it returns a generic error.
func HandleSubmit(formID string, r *http.Request) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	clean, errs := ValidateForm(formID, r.PostForm)
	if len(errs) > 0 {
		return clean, validationError{Fields: errs}
	}
	return clean, nil
}

// IsValidationError reports whether err came from failed ValidateForm.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// FieldErrors returns the per-field messages carried by a validation error,
// keyed by field name.  Form-level messages use the "" key.  The first
// message per field wins.
func FieldErrors(err error) map[string]string {
	var ve validationError
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		if _, seen := out[f.Name]; !seen {
			out[f.Name] = f.Message
		}
	}
	return out
}

// Messages returns the distinct messages carried by a validation error, in
// field order.
func Messages(err error) []string {
	var ve validationError
	if !errors.As(err, &ve) {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, f := range ve.Fields {
		if !seen[f.Message] {
			seen[f.Message] = true
			out = append(out, f.Message)
		}
	}
	return out
}
