// components/auth/join.go
//
// Account creation.
//
// Workflow
//   •  Validate names, email, and password.  Any failure re-renders the form
//      with 422 and the provider is never called.
//   •  Sign up with the provider, then create the profile row.
//   •  When the provider returned a session the visitor is signed in and
//      sent on.  When it did not (email confirmation pending) the page shows
//      a notice instead of the form.
//
//------------------------------------------------------------------------------

package auth

import (
	"errors"
	"net/http"

	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/routing"
	"github.com/yanizio/adept-auth/internal/view"
)

const msgConfirmEmail = "Your account has been created. Please go to your email for confirmation instructions."

func (c *Component) joinGET(w http.ResponseWriter, r *http.Request) {
	if !c.guestOnly(w, r) {
		return
	}
	c.joinPage(w, r, http.StatusOK, nil, nil, nil)
}

func (c *Component) joinPage(w http.ResponseWriter, r *http.Request, status int,
	prefill, fieldErrs map[string]string, banner []string) {

	dest := routing.SafeReturnURL(r, routing.DefaultAuthenticated)
	c.formPage(w, r, status, "join", formJoin, "Join", prefill, fieldErrs, banner, map[string]any{
		"OAuth":     c.oauthLinks(dest),
		"SwitchURL": routing.WithReturnURL(routing.SignIn, dest),
	})
}

func (c *Component) joinPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit(formJoin, r)
	if err != nil {
		if form.IsValidationError(err) {
			c.joinPage(w, r, http.StatusUnprocessableEntity, prefillFrom(r), form.FieldErrors(err), nil)
			return
		}
		c.fail(w, r, "parse join form", err)
		return
	}

	pu, ps, err := c.svc.Provider.SignUp(r.Context(), data["email"], data["password"])
	c.event(r, eventSignUp, err, "email", data["email"])
	if err != nil {
		c.joinPage(w, r, signUpStatus(err), prefillFrom(r), nil, []string{signUpMessage(err)})
		return
	}
	if pu == nil { // session without an embedded user
		if pu, err = c.svc.Provider.GetUser(r.Context(), ps.AccessToken); err != nil {
			c.fail(w, r, "fetch provider user", err)
			return
		}
	}

	sub := profile.Subject{ID: pu.ID}
	if ps.Valid() {
		sub.AccessToken = ps.AccessToken
	}
	err = c.svc.Profiles.Create(r.Context(), sub, profile.Profile{
		ID:        pu.ID,
		FirstName: data["first_name"],
		LastName:  data["last_name"],
	})
	if err != nil && !errors.Is(err, profile.ErrExists) {
		// The account exists now; onboarding collects the names again.
		c.svc.Log.Warnw("create profile after sign-up", "user", pu.ID, "err", err)
	}

	if !ps.Valid() {
		err = c.svc.Views.Render(w, r, http.StatusOK, "join", view.Page{
			Title:  "Check your email",
			Notice: msgConfirmEmail,
		})
		if err != nil {
			c.svc.Log.Errorw("render page", "page", "join", "err", err)
		}
		return
	}

	if ps.User == nil {
		ps.User = pu
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

// signUpStatus maps provider failures: client errors are the visitor's to
// fix, anything else is ours.
func signUpStatus(err error) int {
	if s := provider.StatusOf(err); s >= 400 && s < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusServiceUnavailable
}

// signUpMessage shows the provider's explanation for client errors such as
// an already registered address.
func signUpMessage(err error) string {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Message != "" {
		return apiErr.Message
	}
	return "We could not create your account.  Please try again."
}
