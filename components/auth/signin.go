// components/auth/signin.go
//
// Password sign-in and sign-out handlers.
//
//------------------------------------------------------------------------------

package auth

import (
	"net/http"

	coreauth "github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/routing"
)

const (
	msgBadCredentials = "Invalid email or password."
	msgUnavailable    = "Sign-in is temporarily unavailable.  Please try again."
)

// guestOnly runs the gate for pages meant for anonymous visitors.  It
// returns false when the response has already been written: a redirect
// from the gate, or a signed-in visitor sent on to returnUrl or home.
func (c *Component) guestOnly(w http.ResponseWriter, r *http.Request) bool {
	d, err := c.svc.Gate.Check(r, coreauth.Options{AllowUnauthenticated: true})
	if err != nil {
		c.fail(w, r, "auth gate", err)
		return false
	}
	if !d.Allowed() || d.User != nil {
		if d.Allowed() {
			d = coreauth.Redirect(routing.SafeReturnURL(r, routing.Home), d.Cookie)
		}
		coreauth.Apply(w, r, d, nil)
		return false
	}
	return true
}

func (c *Component) signInGET(w http.ResponseWriter, r *http.Request) {
	if !c.guestOnly(w, r) {
		return
	}
	c.signInPage(w, r, http.StatusOK, nil, nil)
}

func (c *Component) signInPage(w http.ResponseWriter, r *http.Request, status int,
	prefill map[string]string, banner []string) {

	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	c.formPage(w, r, status, "sign-in", formSignIn, "Sign in", prefill, nil, banner, map[string]any{
		"OAuth":     c.oauthLinks(dest),
		"SwitchURL": routing.WithReturnURL(routing.Join, dest),
	})
}

func (c *Component) signInPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit(formSignIn, r)
	if err != nil {
		if form.IsValidationError(err) {
			c.signInPage(w, r, http.StatusUnprocessableEntity, prefillFrom(r), form.Messages(err))
			return
		}
		c.fail(w, r, "parse sign-in form", err)
		return
	}

	ps, err := c.svc.Provider.SignInWithPassword(r.Context(), data["email"], data["password"])
	c.event(r, eventSignIn, err, "email", data["email"])
	if err != nil {
		status, msg := http.StatusUnauthorized, msgBadCredentials
		if provider.IsTransient(err) {
			status, msg = http.StatusServiceUnavailable, msgUnavailable
		}
		c.signInPage(w, r, status, prefillFrom(r), []string{msg})
		return
	}

	sess := c.svc.Sessions.Get(r)
	u, err := c.establish(w, r, sess, ps)
	if err != nil {
		c.fail(w, r, "establish session", err)
		return
	}
	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	http.Redirect(w, r, landing(u, dest), http.StatusSeeOther)
}

func (c *Component) signOutGET(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routing.Home, http.StatusSeeOther)
}

// signOutPOST revokes the provider session when possible and always clears
// the cookie.
func (c *Component) signOutPOST(w http.ResponseWriter, r *http.Request) {
	if !form.VerifyToken(r.PostFormValue(form.CSRFField)) {
		c.svc.Views.Error(w, r, http.StatusForbidden, "Security token invalid.  Please refresh and try again.")
		return
	}

	sess := c.svc.Sessions.Get(r)
	access, _ := coreauth.Tokens(sess)
	var err error
	if access != "" {
		err = c.svc.Provider.SignOut(r.Context(), access)
	}
	c.event(r, eventSignOut, err)

	http.SetCookie(w, c.svc.Sessions.Destroy(sess))
	http.Redirect(w, r, routing.Home, http.StatusSeeOther)
}
