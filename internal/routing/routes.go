// internal/routing/routes.go
//
// Route table and return-URL helpers.
//
// Context
// -------
// Every redirect the app issues points at one of the constants below.  Pages
// that bounce a visitor to sign-in or onboarding attach the current path as
// `returnUrl`, and the destination sends the visitor back there once done.
//
// Notes
// -----
// • `returnUrl` is attacker-controlled.  SafeReturnURL only accepts local
//   absolute paths, so `//evil.example`, `https://…`, and `/\evil` are
//   dropped in favour of the caller's fallback.
// • Oxford commas, two spaces after periods.

package routing

import (
	"net/http"
	"net/url"
	"strings"
)

// Application routes.
const (
	Home            = "/"
	SignIn          = "/sign-in"
	Join            = "/join"
	SignOut         = "/sign-out"
	Callback        = "/callback"
	Profile         = "/profile"
	Example         = "/example"
	CompleteProfile = "/complete-profile"
	OAuthStart      = "/auth/{provider}"
	Health          = "/healthz"
	Metrics         = "/metrics"
)

// Where to land when no returnUrl was given.
const (
	DefaultAuthenticated   = Profile
	DefaultUnauthenticated = Home
)

// ReturnURLParam is the query key carrying the post-auth destination.
const ReturnURLParam = "returnUrl"

// WithReturnURL appends returnUrl=current to target.
func WithReturnURL(target, current string) string {
	q := url.Values{ReturnURLParam: {current}}
	return target + "?" + q.Encode()
}

// CurrentPath returns the request path without query string.
func CurrentPath(r *http.Request) string {
	if r.URL.Path == "" {
		return "/"
	}
	return r.URL.Path
}

// ReturnURL returns the raw returnUrl query value, or "".
func ReturnURL(r *http.Request) string {
	return r.URL.Query().Get(ReturnURLParam)
}

// SafeReturnURL returns the request's returnUrl when it is a local path,
// otherwise fallback.
func SafeReturnURL(r *http.Request, fallback string) string {
	if p := LocalPath(ReturnURL(r)); p != "" {
		return p
	}
	return fallback
}

// LocalPath returns p when it is a same-origin absolute path, otherwise "".
func LocalPath(p string) string {
	if p == "" || p[0] != '/' {
		return ""
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	if strings.ContainsAny(p, "\r\n\t") {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return p
}

// IsUnder reports whether path equals base or is nested below it.
func IsUnder(path, base string) bool {
	return path == base || strings.HasPrefix(path, strings.TrimSuffix(base, "/")+"/")
}
