// Package token decides whether a provider-issued bearer token is still
// usable.
//
// Local mode reads the JWT payload without verifying the signature and
// compares `exp` against the clock.  It never touches the network and fails
// closed: a token that does not decode, or carries no `exp`, is invalid.
// Server mode asks the provider, which checks the signature as well.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanizio/adept-auth/internal/provider"
)

// ErrMalformed is returned by Subject for tokens that do not decode.
var ErrMalformed = errors.New("token: malformed")

// UserGetter is the provider call used by server mode.  *provider.Client
// satisfies it.
type UserGetter interface {
	GetUser(ctx context.Context, accessToken string) (*provider.User, error)
}

// Validator checks access tokens.  Safe for concurrent use.
type Validator struct {
	users  UserGetter
	now    func() time.Time
	parser *jwt.Parser
}

// NewValidator returns a Validator.  users may be nil when server mode is
// never requested; now defaults to time.Now.
func NewValidator(users UserGetter, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{users: users, now: now, parser: jwt.NewParser()}
}

// Validate reports whether token is usable.  With checkServer false the
// answer is computed locally; with checkServer true it is the provider's.
func (v *Validator) Validate(ctx context.Context, token string, checkServer bool) bool {
	if token == "" {
		return false
	}
	if checkServer {
		if v.users == nil {
			return false
		}
		u, err := v.users.GetUser(ctx, token)
		return err == nil && u != nil
	}

	claims, err := v.claims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !v.now().After(claims.ExpiresAt.Time)
}

// Subject returns the `sub` claim, the provider's id for the account.
func (v *Validator) Subject(token string) (string, error) {
	claims, err := v.claims(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// ExpiresAt returns the `exp` claim.
func (v *Validator) ExpiresAt(token string) (time.Time, error) {
	claims, err := v.claims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

func (v *Validator) claims(token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := v.parser.ParseUnverified(token, &claims); err != nil {
		return nil, ErrMalformed
	}
	return &claims, nil
}
