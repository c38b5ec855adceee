// components/auth/auth.go
//
// Adept authentication component.
//
// Context
//   Owns every route that creates, changes, or ends a session: password
//   sign-in, join, sign-out, OAuth start and callback, and the onboarding
//   form that creates a profile for accounts that lack one.  Pages that only
//   read the identity live in components/pages.
//
// Workflow
//   •  Form markup and validation rules come from forms/*.yaml, embedded and
//      registered at init.
//   •  Every POST passes the per-IP rate limiter and a CSRF check.
//   •  Successful provider calls end in establish(), which syncs the session
//      with the profile store and emits the cookie.
//   •  Outcomes are counted on metrics.AuthEventsTotal and logged with the
//      caller's IP and browser.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	coreauth "github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/component"
	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/metrics"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/requestinfo"
	"github.com/yanizio/adept-auth/internal/routing"
	"github.com/yanizio/adept-auth/internal/session"
	"github.com/yanizio/adept-auth/internal/view"
)

//go:embed forms/*.yaml
var forms embed.FS

// Form IDs.
const (
	formSignIn          = "auth/sign-in"
	formJoin            = "auth/join"
	formCompleteProfile = "auth/complete-profile"
)

// Auth event labels.
const (
	eventSignIn          = "sign_in"
	eventSignUp          = "sign_up"
	eventSignOut         = "sign_out"
	eventOAuthStart      = "oauth_start"
	eventOAuthCallback   = "oauth_callback"
	eventCompleteProfile = "complete_profile"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the sign-in, join, and onboarding flows.
type Component struct {
	svc component.Services
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init keeps the shared services.
func (c *Component) Init(svc component.Services) error {
	if svc.Gate == nil || svc.Sessions == nil || svc.Sync == nil ||
		svc.Provider == nil || svc.Profiles == nil || svc.Views == nil || svc.Config == nil {
		return errors.New("auth component: missing services")
	}
	c.svc = svc
	return nil
}

// Routes adds the auth endpoints to r.
func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if c.svc.Limiter != nil {
			r.Use(c.svc.Limiter.Limit)
		}

		r.Get(routing.SignIn, c.signInGET)
		r.Post(routing.SignIn, c.signInPOST)
		r.Get(routing.Join, c.joinGET)
		r.Post(routing.Join, c.joinPOST)
		r.Get(routing.SignOut, c.signOutGET)
		r.Post(routing.SignOut, c.signOutPOST)
		r.Get(routing.OAuthStart, c.oauthStart)
		r.Get(routing.Callback, c.callback)
		r.Get(routing.CompleteProfile, c.completeProfileGET)
		r.Post(routing.CompleteProfile, c.completeProfilePOST)
	})
}

// Register component and its forms at program start.
func init() {
	if err := form.RegisterFS(forms, "forms"); err != nil {
		panic(err)
	}
	component.Register(&Component{})
}

/*──────────────────────────── shared helpers ───────────────────────────────*/

// establish writes ps into sess, rebuilds the identity, and sets the
// cookie.  A nil user with a nil error means the account has no profile.
func (c *Component) establish(w http.ResponseWriter, r *http.Request, sess *session.Session,
	ps *provider.Session) (*coreauth.User, error) {

	pu := ps.User
	if pu == nil {
		var err error
		if pu, err = c.svc.Provider.GetUser(r.Context(), ps.AccessToken); err != nil {
			return nil, fmt.Errorf("fetch provider user: %w", err)
		}
	}

	u, err := c.svc.Sync.Sync(r.Context(), pu, sess, ps.AccessToken, ps.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := c.svc.Sessions.Save(w, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return u, nil
}

// landing picks where to go after a session is established: onboarding
// when there is no profile yet, otherwise dest.
func landing(u *coreauth.User, dest string) string {
	if u == nil {
		return routing.WithReturnURL(routing.CompleteProfile, dest)
	}
	return dest
}

// formPage renders a form page.  Field errors go inline; form-level errors
// (key "") go to the banner along with banner.
func (c *Component) formPage(w http.ResponseWriter, r *http.Request, status int, page, formID, title string,
	prefill, fieldErrs map[string]string, banner []string, data map[string]any) {

	if msg, ok := fieldErrs[""]; ok {
		banner = append([]string{msg}, banner...)
	}
	html, err := form.RenderForm(formID, form.RenderOptions{
		Action:  r.URL.RequestURI(),
		Prefill: prefill,
		Errors:  fieldErrs,
	})
	if err != nil {
		c.fail(w, r, "render form", err)
		return
	}
	err = c.svc.Views.Render(w, r, status, page, view.Page{
		Title:  title,
		Form:   html,
		Errors: banner,
		Data:   data,
	})
	if err != nil {
		c.svc.Log.Errorw("render page", "page", page, "err", err)
	}
}

// fail logs err and renders a generic 500.
func (c *Component) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	c.svc.Log.Errorw(what, "path", r.URL.Path, "err", err)
	c.svc.Views.Error(w, r, http.StatusInternalServerError,
		"Something went wrong.  Please try again.")
}

// event counts and logs an auth outcome.
func (c *Component) event(r *http.Request, name string, err error, kv ...any) {
	metrics.AuthEventsTotal.WithLabelValues(name, metrics.Result(err)).Inc()

	fields := append([]any{"event", name}, kv...)
	if info := requestinfo.FromContext(r.Context()); info != nil {
		fields = append(fields, "ip", info.IP, "browser", info.UA.Browser)
	}
	if err != nil {
		c.svc.Log.Warnw("auth event failed", append(fields, "err", err)...)
		return
	}
	c.svc.Log.Infow("auth event", fields...)
}

// oauthLinks lists the configured OAuth providers with start URLs that
// carry returnUrl.
func (c *Component) oauthLinks(returnURL string) []oauthLink {
	out := make([]oauthLink, 0, len(c.svc.Config.Provider.OAuthProviders))
	for _, p := range c.svc.Config.Provider.OAuthProviders {
		start := strings.Replace(routing.OAuthStart, "{provider}", p, 1)
		out = append(out, oauthLink{
			Label: strings.ToUpper(p[:1]) + p[1:],
			URL:   routing.WithReturnURL(start, returnURL),
		})
	}
	return out
}

type oauthLink struct {
	Label string
	URL   string
}

// prefillFrom copies posted values except secrets.
func prefillFrom(r *http.Request) map[string]string {
	out := map[string]string{}
	for k := range r.PostForm {
		if k == "password" || k == form.CSRFField {
			continue
		}
		out[k] = r.PostForm.Get(k)
	}
	return out
}
