package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yanizio/adept-auth/internal/provider"
)

// RESTStore keeps profiles behind the provider's PostgREST API.  Each call
// is made with the subject's access token.
type RESTStore struct {
	client *provider.Client
	table  string
}

// NewRESTStore returns a store for table on c.
func NewRESTStore(c *provider.Client, table string) *RESTStore {
	if table == "" {
		table = "profiles"
	}
	return &RESTStore{client: c, table: table}
}

// Get implements Store.
func (s *RESTStore) Get(ctx context.Context, sub Subject) (*Profile, error) {
	if sub.ID == "" {
		return nil, ErrNotFound
	}
	var rows []Profile
	err := s.client.WithToken(sub.AccessToken).Rest(ctx, provider.Query{
		Op:     "profile_get",
		Method: http.MethodGet,
		Table:  s.table,
		Params: url.Values{
			"select": {"id,first_name,last_name"},
			"id":     {"eq." + sub.ID},
			"limit":  {"1"},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("profile: get %s: %w", sub.ID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Create implements Store.
func (s *RESTStore) Create(ctx context.Context, sub Subject, p Profile) error {
	p.ID = sub.ID
	if p.ID == "" {
		return errors.New("profile: create without subject id")
	}
	err := s.client.WithToken(sub.AccessToken).Rest(ctx, provider.Query{
		Op:     "profile_create",
		Method: http.MethodPost,
		Table:  s.table,
		Prefer: "return=minimal",
		Body:   p,
	}, nil)
	if provider.StatusOf(err) == http.StatusConflict {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("profile: create %s: %w", p.ID, err)
	}
	return nil
}
