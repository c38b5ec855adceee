// Package profile stores the app-side half of an account: the display name
// keyed by the provider's user id.
//
// Two backends satisfy Store.  SQLStore talks to the database directly.
// RESTStore goes through the provider's PostgREST endpoint with the
// caller's own token, so row-level security decides what is visible.
package profile

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no profile row exists for the subject.
	ErrNotFound = errors.New("profile: not found")
	// ErrExists means a row with the same id is already stored.
	ErrExists = errors.New("profile: already exists")
)

// Profile is one row of the profiles table.
type Profile struct {
	ID        string `db:"id"         json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name"  json:"last_name"`
}

// Subject identifies whose profile is being read or written, and with what
// credential.  AccessToken is only used by backends that forward it.
type Subject struct {
	ID          string
	AccessToken string
}

// Store reads and creates profiles.  Implementations are safe for
// concurrent use and hold no per-request state.
type Store interface {
	// Get returns ErrNotFound when no row exists; any other error is a
	// lookup failure.
	Get(ctx context.Context, sub Subject) (*Profile, error)
	// Create inserts p.  p.ID is forced to sub.ID.  A duplicate id returns
	// ErrExists.
	Create(ctx context.Context, sub Subject, p Profile) error
}
