// components/auth/oauth.go
//
// OAuth sign-in through the provider, using PKCE.
//
// Workflow
//   1. GET /auth/{provider} stores a fresh verifier in the session and
//      redirects to the provider's authorize URL.  redirect_to points back
//      at /callback and carries returnUrl.
//   2. GET /callback trades ?code and the stored verifier for a session,
//      drops the verifier, and signs the visitor in.  Any failure lands on
//      the sign-in page.
//
//------------------------------------------------------------------------------

package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	coreauth "github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/routing"
)

func (c *Component) oauthStart(w http.ResponseWriter, r *http.Request) {
	idp := chi.URLParam(r, "provider")
	if !slices.Contains(c.svc.Config.Provider.OAuthProviders, idp) {
		http.NotFound(w, r)
		return
	}

	verifier, challenge := provider.NewPKCE()
	sess := c.svc.Sessions.Get(r)
	sess.Set(coreauth.KeyPKCEVerifier, verifier)
	if err := c.svc.Sessions.Save(w, sess); err != nil {
		c.fail(w, r, "save pkce verifier", err)
		return
	}

	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	callback := strings.TrimSuffix(c.svc.Config.HTTP.PublicURL, "/") +
		routing.WithReturnURL(routing.Callback, dest)

	c.event(r, eventOAuthStart, nil, "provider", idp)
	http.Redirect(w, r, c.svc.Provider.AuthorizeURL(idp, callback, challenge), http.StatusFound)
}

func (c *Component) callback(w http.ResponseWriter, r *http.Request) {
	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	toSignIn := func(err error) {
		c.event(r, eventOAuthCallback, err)
		http.Redirect(w, r, routing.WithReturnURL(routing.SignIn, dest), http.StatusFound)
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		toSignIn(errors.New("provider: " + e + ": " + q.Get("error_description")))
		return
	}
	code := q.Get("code")
	if code == "" {
		toSignIn(errors.New("callback without code"))
		return
	}

	sess := c.svc.Sessions.Get(r)
	verifier := sess.Get(coreauth.KeyPKCEVerifier)
	if verifier == "" {
		toSignIn(errors.New("callback without pkce verifier"))
		return
	}
	sess.Unset(coreauth.KeyPKCEVerifier)

	ps, err := c.svc.Provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		toSignIn(err)
		return
	}

	u, err := c.establish(w, r, sess, ps)
	c.event(r, eventOAuthCallback, err)
	if err != nil {
		c.fail(w, r, "establish session", err)
		return
	}
	http.Redirect(w, r, landing(u, dest), http.StatusFound)
}
