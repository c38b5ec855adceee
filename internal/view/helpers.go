// internal/view/helpers.go
//
// Template helpers.  Request-info helpers are nil-safe so pages render the
// same with or without the enricher mounted:
//
//	{{ browser .Info }} on {{ device .Info }}  {{ country .Info }}
//	<input type="hidden" name="csrf_token" value="{{ csrf }}">
package view

import (
	"html/template"

	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/requestinfo"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"csrf":    csrf,
		"browser": func(i *requestinfo.Info) string { return uaField(i, func(u requestinfo.UA) string { return u.Browser }) },
		"os":      func(i *requestinfo.Info) string { return uaField(i, func(u requestinfo.UA) string { return u.OS }) },
		"device":  func(i *requestinfo.Info) string { return uaField(i, func(u requestinfo.UA) string { return u.Device }) },
		"country": func(i *requestinfo.Info) string {
			if i == nil {
				return ""
			}
			return i.CountryISO
		},
	}
}

func uaField(i *requestinfo.Info, get func(requestinfo.UA) string) string {
	if i == nil {
		return ""
	}
	return get(i.UA)
}

// csrf mints a fresh token for hand-written forms such as sign-out.
func csrf() string {
	tok, err := form.GenerateToken()
	if err != nil {
		zap.S().Errorw("csrf token", "err", err)
		return ""
	}
	return tok
}
