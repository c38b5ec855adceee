package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// User is the provider's view of an account.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	ConfirmedAt  *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is a token pair issued by the provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Valid reports whether both tokens are present.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account.  When the project requires email
// confirmation the provider returns only the user and session is nil.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op: "signup", method: http.MethodPost, path: "/auth/v1/signup",
		body: credentials{Email: email, Password: password}, out: &raw,
	})
	if err != nil {
		return nil, nil, err
	}

	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, fmt.Errorf("provider signup: decode: %w", err)
	}
	if probe.AccessToken != "" {
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, nil, fmt.Errorf("provider signup: decode session: %w", err)
		}
		return s.User, &s, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, nil, fmt.Errorf("provider signup: decode user: %w", err)
	}
	if u.ID == "" {
		return nil, nil, errors.New("provider signup: empty user in response")
	}
	return &u, nil, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "signin", "password", credentials{Email: email, Password: password})
}

// RefreshAccessToken trades a refresh token for a new session.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh", "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// ExchangeCode completes a PKCE OAuth flow.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	return c.token(ctx, "exchange", "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
}

func (c *Client) token(ctx context.Context, op, grant string, body any) (*Session, error) {
	var s Session
	err := c.do(ctx, call{
		op: op, method: http.MethodPost, path: "/auth/v1/token",
		query: url.Values{"grant_type": {grant}},
		body:  body, out: &s,
	})
	if err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, fmt.Errorf("provider %s: response missing tokens", op)
	}
	return &s, nil
}

// SignOut revokes the session that owns accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.WithToken(accessToken).do(ctx, call{
		op: "signout", method: http.MethodPost, path: "/auth/v1/logout",
	})
}

// GetUser returns the account that owns accessToken.  The provider
// validates the token's signature and expiry.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	err := c.WithToken(accessToken).do(ctx, call{
		op: "get_user", method: http.MethodGet, path: "/auth/v1/user", out: &u,
	})
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("provider get_user: empty user in response")
	}
	return &u, nil
}

// AuthorizeURL builds the browser redirect that starts an OAuth sign-in
// with the named identity provider.  challenge is the S256 PKCE challenge.
func (c *Client) AuthorizeURL(idp, redirectTo, challenge string) string {
	u := *c.base
	u.Path += "/auth/v1/authorize"
	q := url.Values{"provider": {idp}, "redirect_to": {redirectTo}}
	if challenge != "" {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "s256")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPKCE returns a fresh verifier and its S256 challenge.
func NewPKCE() (verifier, challenge string) {
	verifier = oauth2.GenerateVerifier()
	return verifier, oauth2.S256ChallengeFromVerifier(verifier)
}
