// components/auth/onboarding.go
//
// Complete-profile flow for accounts that exist with the provider but have
// no profile row yet, e.g. after OAuth sign-in or an interrupted join.
//
//------------------------------------------------------------------------------

package auth

import (
	"errors"
	"net/http"

	coreauth "github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/routing"
)

func (c *Component) completeProfileGET(w http.ResponseWriter, r *http.Request) {
	d, err := c.svc.Gate.Check(r, coreauth.Options{})
	if err != nil {
		c.fail(w, r, "auth gate", err)
		return
	}
	if !d.Allowed() {
		coreauth.Apply(w, r, d, nil)
		return
	}
	if d.User != nil { // already onboarded
		http.Redirect(w, r, routing.SafeReturnURL(r, routing.Home), http.StatusFound)
		return
	}
	c.formPage(w, r, http.StatusOK, "complete-profile", formCompleteProfile, "Complete profile",
		nil, nil, nil, nil)
}

func (c *Component) completeProfilePOST(w http.ResponseWriter, r *http.Request) {
	toSignIn := func() {
		loc := routing.WithReturnURL(routing.SignIn, routing.CurrentPath(r))
		http.Redirect(w, r, loc, http.StatusSeeOther)
	}

	sess := c.svc.Sessions.Get(r)
	access, refresh := coreauth.Tokens(sess)
	if access == "" || refresh == "" {
		toSignIn()
		return
	}
	pu, err := c.svc.Provider.GetUser(r.Context(), access)
	if err != nil {
		c.event(r, eventCompleteProfile, err)
		toSignIn()
		return
	}

	data, err := form.HandleSubmit(formCompleteProfile, r)
	if err != nil {
		if form.IsValidationError(err) {
			c.formPage(w, r, http.StatusUnprocessableEntity, "complete-profile", formCompleteProfile,
				"Complete profile", prefillFrom(r), form.FieldErrors(err), nil, nil)
			return
		}
		c.fail(w, r, "parse complete-profile form", err)
		return
	}

	err = c.svc.Profiles.Create(r.Context(), profile.Subject{ID: pu.ID, AccessToken: access}, profile.Profile{
		ID:        pu.ID,
		FirstName: data["first_name"],
		LastName:  data["last_name"],
	})
	if err != nil && !errors.Is(err, profile.ErrExists) {
		c.event(r, eventCompleteProfile, err, "user", pu.ID)
		c.fail(w, r, "create profile", err)
		return
	}

	u, err := c.establish(w, r, sess, &provider.Session{AccessToken: access, RefreshToken: refresh, User: pu})
	c.event(r, eventCompleteProfile, err, "user", pu.ID)
	if err != nil {
		c.fail(w, r, "establish session", err)
		return
	}
	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	http.Redirect(w, r, landing(u, dest), http.StatusSeeOther)
}
