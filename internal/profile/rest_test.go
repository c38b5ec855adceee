package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/adept-auth/internal/provider"
)

func newRESTStore(t *testing.T, h http.HandlerFunc) *RESTStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := provider.New(provider.Options{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatal(err)
	}
	return NewRESTStore(c, "profiles")
}

func TestRESTGet(t *testing.T) {
	var auth, filter string
	s := newRESTStore(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		filter = r.URL.Query().Get("id")
		_, _ = w.Write([]byte(`[{"id":"u1","first_name":"A","last_name":"B"}]`))
	})

	p, err := s.Get(context.Background(), Subject{ID: "u1", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.FirstName != "A" || p.LastName != "B" {
		t.Fatalf("profile = %#v", p)
	}
	if auth != "Bearer tok" || filter != "eq.u1" {
		t.Fatalf("auth=%q filter=%q", auth, filter)
	}
}

func TestRESTGetNotFoundVsFailure(t *testing.T) {
	empty := newRESTStore(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	if _, err := empty.Get(context.Background(), Subject{ID: "u1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	down := newRESTStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := down.Get(context.Background(), Subject{ID: "u1"})
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want lookup failure", err)
	}
	if !provider.IsTransient(err) {
		t.Fatalf("503 should be transient: %v", err)
	}
}

func TestRESTCreate(t *testing.T) {
	var body Profile
	var prefer string
	s := newRESTStore(t, func(w http.ResponseWriter, r *http.Request) {
		prefer = r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	})

	err := s.Create(context.Background(), Subject{ID: "u1", AccessToken: "tok"}, Profile{FirstName: "A", LastName: "B"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if body != (Profile{ID: "u1", FirstName: "A", LastName: "B"}) || prefer != "return=minimal" {
		t.Fatalf("body=%#v prefer=%q", body, prefer)
	}
}

func TestRESTCreateConflict(t *testing.T) {
	s := newRESTStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key"}`))
	})
	err := s.Create(context.Background(), Subject{ID: "u1"}, Profile{FirstName: "A", LastName: "B"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("err = %v, want ErrExists", err)
	}
}
