// internal/auth/gate.go
//
// Authentication gate.
//
// Context
// -------
// Every page that cares who the visitor is asks the Gate first.  The Gate
// reads the session cookie, checks the access token locally, and answers
// with a Decision:
//
//   - Allow(user)        → render; user is nil for anonymous visitors on
//                          pages that permit them.
//   - Redirect(location) → send the visitor elsewhere (sign-in, onboarding,
//                          or a reload of the same URL).
//
// Either kind may carry a cookie the caller must emit.
//
// Workflow
// --------
//  1. No tokens, or an expired access token → anonymous policy: Allow(nil)
//     when AllowUnauthenticated, otherwise Redirect to sign-in with
//     returnUrl.
//  2. Identity cached in the session → Allow(user).
//  3. No cached identity → fetch the profile and the provider account in
//     parallel.  No profile → onboarding (or Allow(nil) on the onboarding
//     page itself).  Profile found → cache the identity, then Redirect to
//     the same URL for GET/HEAD, or Allow(user) for other methods.
//
// Notes
// -----
// • Expired tokens are not refreshed here.  The provider client exposes
//   RefreshAccessToken for that.
// • All external calls share one deadline.  Running out of time, or a
//   token the provider rejects, falls back to the anonymous policy.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/adept-auth/internal/metrics"
	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/routing"
	"github.com/yanizio/adept-auth/internal/session"
	"github.com/yanizio/adept-auth/internal/token"
)

// DefaultTimeout bounds one Check when Deps.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Kind tags a Decision.
type Kind int

const (
	KindAllow Kind = iota
	KindRedirect
)

func (k Kind) String() string {
	if k == KindRedirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of a gate check.
type Decision struct {
	Kind     Kind
	User     *User        // KindAllow only; nil for anonymous
	Location string       // KindRedirect only
	Cookie   *http.Cookie // optional Set-Cookie the caller must emit
}

// Allow returns an allow decision.
func Allow(u *User, c *http.Cookie) Decision { return Decision{Kind: KindAllow, User: u, Cookie: c} }

// Redirect returns a redirect decision.
func Redirect(location string, c *http.Cookie) Decision {
	return Decision{Kind: KindRedirect, Location: location, Cookie: c}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Kind == KindAllow }

// Options tunes one Check.
type Options struct {
	// AllowUnauthenticated lets anonymous visitors through with a nil user
	// instead of redirecting them to sign-in.
	AllowUnauthenticated bool
}

// UserGetter fetches the provider's account for a token.
type UserGetter interface {
	GetUser(ctx context.Context, accessToken string) (*provider.User, error)
}

// Deps wires a Gate.
type Deps struct {
	Sessions *session.Store
	Tokens   *token.Validator
	Profiles profile.Store
	Users    UserGetter
	Timeout  time.Duration
	Log      *zap.SugaredLogger

	// OnError renders the response for Check failures in middleware.
	// Defaults to a plain 500.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Gate resolves the caller's identity.  Safe for concurrent use.
type Gate struct {
	sessions *session.Store
	tokens   *token.Validator
	profiles profile.Store
	users    UserGetter
	timeout  time.Duration
	log      *zap.SugaredLogger
	onError  func(w http.ResponseWriter, r *http.Request, err error)
}

// NewGate validates d and returns a Gate.
func NewGate(d Deps) (*Gate, error) {
	if d.Sessions == nil || d.Tokens == nil || d.Profiles == nil || d.Users == nil {
		return nil, errors.New("auth: gate needs sessions, tokens, profiles, and users")
	}
	g := &Gate{
		sessions: d.Sessions,
		tokens:   d.Tokens,
		profiles: d.Profiles,
		users:    d.Users,
		timeout:  d.Timeout,
		log:      d.Log,
		onError:  d.OnError,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.log == nil {
		g.log = zap.S()
	}
	if g.onError == nil {
		g.onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return g, nil
}

// Sessions exposes the session store so handlers share one codec.
func (g *Gate) Sessions() *session.Store { return g.sessions }

// Check runs the gate for r.
func (g *Gate) Check(r *http.Request, opts Options) (Decision, error) {
	d, outcome, err := g.check(r, opts)
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.GateDecisionsTotal.WithLabelValues(outcome).Inc()
	return d, err
}

func (g *Gate) check(r *http.Request, opts Options) (Decision, string, error) {
	anonymous := func() (Decision, string, error) {
		if opts.AllowUnauthenticated {
			return Allow(nil, nil), metrics.OutcomeAnonymous, nil
		}
		loc := routing.WithReturnURL(routing.SignIn, routing.CurrentPath(r))
		return Redirect(loc, nil), metrics.OutcomeSignIn, nil
	}

	sess := g.sessions.Get(r)
	accessToken, refreshToken := Tokens(sess)
	if accessToken == "" || refreshToken == "" {
		return anonymous()
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	if !g.tokens.Validate(ctx, accessToken, false) {
		return anonymous()
	}

	if u := CachedUser(sess); u != nil {
		return Allow(u, nil), metrics.OutcomeAllow, nil
	}

	sub, err := g.tokens.Subject(accessToken)
	if err != nil {
		return anonymous()
	}

	var (
		prof *profile.Profile
		pu   *provider.User
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := g.profiles.Get(gctx, profile.Subject{ID: sub, AccessToken: accessToken})
		if errors.Is(err, profile.ErrNotFound) {
			return nil
		}
		prof = p
		return err
	})
	eg.Go(func() error {
		u, err := g.users.GetUser(gctx, accessToken)
		pu = u
		return err
	})
	if err := eg.Wait(); err != nil {
		if ctx.Err() != nil || provider.IsUnauthorized(err) {
			g.log.Infow("gate fell back to anonymous", "path", r.URL.Path, "err", err)
			return anonymous()
		}
		return Decision{}, "", fmt.Errorf("auth: gate resync: %w", err)
	}

	if prof == nil {
		if routing.IsUnder(routing.CurrentPath(r), routing.CompleteProfile) {
			return Allow(nil, nil), metrics.OutcomeAnonymous, nil
		}
		loc := routing.WithReturnURL(routing.CompleteProfile, routing.CurrentPath(r))
		return Redirect(loc, nil), metrics.OutcomeOnboarding, nil
	}

	u := identityFrom(prof, pu)
	if err := storeUser(sess, u); err != nil {
		return Decision{}, "", err
	}
	cookie, err := g.sessions.Commit(sess)
	if err != nil {
		return Decision{}, "", fmt.Errorf("auth: gate commit: %w", err)
	}
	g.log.Debugw("session identity rebuilt", "user", u.ID, "method", r.Method)

	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return Redirect(r.URL.RequestURI(), cookie), metrics.OutcomeResync, nil
	}
	return Allow(u, cookie), metrics.OutcomeResync, nil
}
