package auth

import (
	"net/http"
)

// Require only lets signed-in visitors with a profile reach next.  Others
// are redirected.
func (g *Gate) Require(next http.Handler) http.Handler {
	return g.middleware(Options{}, next)
}

// Optional lets everyone through and attaches the identity when there is
// one.  Signed-in visitors may still be redirected for onboarding or a
// session reload.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return g.middleware(Options{AllowUnauthenticated: true}, next)
}

func (g *Gate) middleware(opts Options, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := g.Check(r, opts)
		if err != nil {
			g.log.Errorw("auth gate failed", "path", r.URL.Path, "err", err)
			g.onError(w, r, err)
			return
		}
		Apply(w, r, d, next)
	})
}

// Apply writes d to w: it sets the cookie, then either redirects or calls
// next with the identity in the request context.
func Apply(w http.ResponseWriter, r *http.Request, d Decision, next http.Handler) {
	if d.Cookie != nil {
		http.SetCookie(w, d.Cookie)
	}
	if d.Kind == KindRedirect {
		http.Redirect(w, r, d.Location, http.StatusFound)
		return
	}
	if next != nil {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), d.User)))
	}
}
