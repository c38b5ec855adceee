package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/session"
)

// Synchronizer writes a fresh token pair into a session and rebuilds the
// cached identity from the profile store.
type Synchronizer struct {
	profiles profile.Store
}

// NewSynchronizer returns a Synchronizer over profiles.
func NewSynchronizer(profiles profile.Store) *Synchronizer {
	return &Synchronizer{profiles: profiles}
}

// Sync always stores both tokens.  When the account has a profile the
// identity is cached and returned.  When it does not, any cached identity
// is removed and (nil, nil) is returned so the caller can send the visitor
// to onboarding.  Store failures are returned as errors.
func (s *Synchronizer) Sync(ctx context.Context, pu *provider.User, sess *session.Session,
	accessToken, refreshToken string) (*User, error) {

	SetTokens(sess, accessToken, refreshToken)
	if pu == nil || pu.ID == "" {
		sess.Unset(KeyUser)
		return nil, errors.New("auth: sync without provider user")
	}

	p, err := s.profiles.Get(ctx, profile.Subject{ID: pu.ID, AccessToken: accessToken})
	if errors.Is(err, profile.ErrNotFound) {
		sess.Unset(KeyUser)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: sync profile: %w", err)
	}

	u := identityFrom(p, pu)
	if err := storeUser(sess, u); err != nil {
		return nil, err
	}
	return u, nil
}
