package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGoTrue records the last request and answers from a route table.
type fakeGoTrue struct {
	t        *testing.T
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
	lastReq  *http.Request
	lastBody map[string]any
}

func newFake(t *testing.T) (*fakeGoTrue, *Client) {
	t.Helper()
	f := &fakeGoTrue{t: t, routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastReq = r
		f.lastBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		}
		h, ok := f.routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{URL: srv.URL + "/", AnonKey: "anon"})
	require.NoError(t, err)
	return f, c
}

func (f *fakeGoTrue) on(route string, status int, body string) {
	f.routes[route] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

const sessionJSON = `{
  "access_token": "at", "refresh_token": "rt", "token_type": "bearer",
  "expires_in": 3600, "expires_at": 1700003600,
  "user": {"id": "u1", "email": "a@b.com"}
}`

func TestNewValidates(t *testing.T) {
	_, err := New(Options{URL: "not a url", AnonKey: "k"})
	assert.Error(t, err)
	_, err = New(Options{URL: "https://x.supabase.co"})
	assert.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	f, c := newFake(t)
	f.on("POST /auth/v1/token", http.StatusOK, sessionJSON)

	s, err := c.SignInWithPassword(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, "rt", s.RefreshToken)
	assert.Equal(t, "u1", s.User.ID)

	assert.Equal(t, "password", f.lastReq.URL.Query().Get("grant_type"))
	assert.Equal(t, "anon", f.lastReq.Header.Get("apikey"))
	assert.Empty(t, f.lastReq.Header.Get("Authorization"))
	assert.Equal(t, "a@b.com", f.lastBody["email"])
}

func TestSignInError(t *testing.T) {
	f, c := newFake(t)
	f.on("POST /auth/v1/token", http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"Invalid login credentials"}`)

	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "wrong")
	var ae *APIError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "invalid_grant", ae.Code)
	assert.Equal(t, "Invalid login credentials", ae.Message)
	assert.False(t, IsTransient(err))
}

func TestSignUpWithAndWithoutSession(t *testing.T) {
	f, c := newFake(t)

	f.on("POST /auth/v1/signup", http.StatusOK, sessionJSON)
	u, s, err := c.SignUp(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "u1", u.ID)

	f.on("POST /auth/v1/signup", http.StatusOK, `{"id":"u2","email":"c@d.com"}`)
	u, s, err = c.SignUp(context.Background(), "c@d.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, "u2", u.ID)
}

func TestGetUserSendsBearer(t *testing.T) {
	f, c := newFake(t)
	f.on("GET /auth/v1/user", http.StatusOK, `{"id":"u1","email":"a@b.com"}`)

	u, err := c.GetUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "Bearer tok", f.lastReq.Header.Get("Authorization"))
	assert.Empty(t, c.Token(), "GetUser must not mutate the shared client")
}

func TestGetUserUnauthorized(t *testing.T) {
	f, c := newFake(t)
	f.on("GET /auth/v1/user", http.StatusUnauthorized,
		`{"code":401,"error_code":"bad_jwt","msg":"invalid JWT"}`)

	_, err := c.GetUser(context.Background(), "expired")
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, 401, StatusOf(err))
}

func TestServerErrorIsTransient(t *testing.T) {
	f, c := newFake(t)
	f.on("POST /auth/v1/logout", http.StatusBadGateway, `upstream down`)
	err := c.SignOut(context.Background(), "tok")
	assert.True(t, IsTransient(err))
	assert.Equal(t, "Bad Gateway", err.(*APIError).Message)
}

func TestTransportErrorIsTransient(t *testing.T) {
	c, err := New(Options{URL: "http://127.0.0.1:1", AnonKey: "k"})
	require.NoError(t, err)
	_, err = c.GetUser(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestExchangeCodeAndRefresh(t *testing.T) {
	f, c := newFake(t)
	f.on("POST /auth/v1/token", http.StatusOK, sessionJSON)

	_, err := c.ExchangeCode(context.Background(), "code123", "verifier")
	require.NoError(t, err)
	assert.Equal(t, "pkce", f.lastReq.URL.Query().Get("grant_type"))
	assert.Equal(t, "code123", f.lastBody["auth_code"])
	assert.Equal(t, "verifier", f.lastBody["code_verifier"])

	_, err = c.RefreshAccessToken(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", f.lastReq.URL.Query().Get("grant_type"))
	assert.Equal(t, "rt", f.lastBody["refresh_token"])
}

func TestTokenResponseMissingTokens(t *testing.T) {
	f, c := newFake(t)
	f.on("POST /auth/v1/token", http.StatusOK, `{"access_token":"at"}`)
	_, err := c.RefreshAccessToken(context.Background(), "rt")
	assert.Error(t, err)
}

func TestAuthorizeURLAndPKCE(t *testing.T) {
	_, c := newFake(t)
	verifier, challenge := NewPKCE()
	require.NotEmpty(t, verifier)
	require.NotEqual(t, verifier, challenge)

	raw := c.AuthorizeURL("google", "https://app.example.com/callback?returnUrl=%2Fprofile", challenge)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "google", q.Get("provider"))
	assert.Equal(t, "https://app.example.com/callback?returnUrl=%2Fprofile", q.Get("redirect_to"))
	assert.Equal(t, challenge, q.Get("code_challenge"))
	assert.Equal(t, "s256", q.Get("code_challenge_method"))
}

func TestRestQuery(t *testing.T) {
	f, c := newFake(t)
	f.on("GET /rest/v1/profiles", http.StatusOK, `[{"id":"u1"}]`)

	var rows []map[string]string
	err := c.WithToken("tok").Rest(context.Background(), Query{
		Op: "profile_get", Method: http.MethodGet, Table: "profiles",
		Params: url.Values{"id": {"eq.u1"}},
	}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "eq.u1", f.lastReq.URL.Query().Get("id"))
	assert.Equal(t, "Bearer tok", f.lastReq.Header.Get("Authorization"))

	f.on("POST /rest/v1/profiles", http.StatusConflict,
		`{"code":"23505","message":"duplicate key value violates unique constraint"}`)
	err = c.WithToken("tok").Rest(context.Background(), Query{
		Op: "profile_create", Method: http.MethodPost, Table: "profiles",
		Prefer: "return=minimal", Body: map[string]string{"id": "u1"},
	}, nil)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Equal(t, "return=minimal", f.lastReq.Header.Get("Prefer"))
	assert.Equal(t, "23505", err.(*APIError).Code)
}
