package auth

import (
	"github.com/yanizio/adept-auth/internal/session"
)

// Session keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyPKCEVerifier = "pkce_verifier"
)

// Tokens returns the access and refresh tokens held in sess.
func Tokens(sess *session.Session) (accessToken, refreshToken string) {
	return sess.Get(KeyAccessToken), sess.Get(KeyRefreshToken)
}

// SetTokens stores both tokens.
func SetTokens(sess *session.Session, accessToken, refreshToken string) {
	sess.Set(KeyAccessToken, accessToken)
	sess.Set(KeyRefreshToken, refreshToken)
}

// CachedUser returns the identity cached in sess, or nil when absent or
// unreadable.
func CachedUser(sess *session.Session) *User {
	var u User
	ok, err := sess.GetJSON(KeyUser, &u)
	if !ok || err != nil || u.ID == "" {
		return nil
	}
	return &u
}

func storeUser(sess *session.Session, u *User) error {
	if u == nil {
		sess.Unset(KeyUser)
		return nil
	}
	return sess.SetJSON(KeyUser, u)
}
