// internal/auth/context.go
//
// Identity type and request-context helpers.
//
// Usage
// -----
//     // The gate middleware attaches the caller after a successful check.
//     ctx = auth.WithUser(ctx, user)
//
//     // Downstream handlers read it back.
//     u, ok := auth.UserFrom(ctx)   // *User, true
//
// Notes
// -----
// • A nil *User is never stored; UserFrom returns (nil, false) for
//   anonymous requests.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"strings"

	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
)

// User is the identity cached in the session.  It is always rebuilt from a
// profile row plus the provider's account, never edited in place.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// DisplayName joins the first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// identityFrom builds the cached identity.  The email comes from the
// provider and is "" when the provider account is unknown.
func identityFrom(p *profile.Profile, pu *provider.User) *User {
	u := &User{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
	if pu != nil {
		u.Email = pu.Email
	}
	return u
}

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying u.  A nil u leaves ctx unchanged.
func WithUser(ctx context.Context, u *User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom extracts the identity from ctx.  It returns (nil, false) if no
// user is set.
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey{}).(*User)
	return u, ok && u != nil
}
