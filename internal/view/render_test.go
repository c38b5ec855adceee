package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/requestinfo"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New("Adept")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewParsesEveryPage(t *testing.T) {
	e := newEngine(t)
	for _, p := range []string{"home", "sign-in", "join", "complete-profile", "profile", "example", "error"} {
		if _, ok := e.pages[p]; !ok {
			t.Errorf("page %q not parsed", p)
		}
	}
	if _, ok := e.pages["layout"]; ok {
		t.Error("layout registered as a page")
	}
}

func TestRenderAnonymousHome(t *testing.T) {
	e := newEngine(t)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := e.Render(rec, r, http.StatusOK, "home", Page{Title: "Home"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Home · Adept</title>") {
		t.Errorf("title missing:\n%s", body)
	}
	if !strings.Contains(body, `href="/sign-in"`) || strings.Contains(body, "Sign out") {
		t.Errorf("anonymous nav wrong:\n%s", body)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("Cache-Control not set")
	}
}

func TestRenderSignedInProfile(t *testing.T) {
	e := newEngine(t)
	u := &auth.User{ID: "u1", FirstName: "A", LastName: "B", Email: "a@b.com"}
	r := httptest.NewRequest(http.MethodGet, "/profile", nil)
	ctx := auth.WithUser(r.Context(), u)
	ctx = requestinfo.WithInfo(ctx, &requestinfo.Info{UA: requestinfo.UA{Browser: "Firefox", OS: "Linux"}})
	r = r.WithContext(ctx)

	rec := httptest.NewRecorder()
	if err := e.Render(rec, r, http.StatusOK, "profile", Page{Title: "Profile"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{"a@b.com", "Sign out", `name="csrf_token"`, "Signed in from Firefox on Linux"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestRenderHidesControlsDuringOnboarding(t *testing.T) {
	e := newEngine(t)
	r := httptest.NewRequest(http.MethodGet, "/complete-profile", nil)
	r = r.WithContext(auth.WithUser(r.Context(), &auth.User{ID: "u1", FirstName: "A"}))

	rec := httptest.NewRecorder()
	if err := e.Render(rec, r, http.StatusOK, "complete-profile", Page{Title: "Complete profile"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<nav>") || strings.Contains(body, "Sign out") {
		t.Errorf("controls shown on onboarding page:\n%s", body)
	}
}

func TestRenderEscapesErrors(t *testing.T) {
	e := newEngine(t)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/sign-in", nil)

	err := e.Render(rec, r, http.StatusUnprocessableEntity, "sign-in", Page{
		Errors: []string{"<b>bad</b>"},
		Data:   map[string]any{"SwitchURL": "/join"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<b>bad</b>") {
		t.Error("error banner not escaped")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	e := newEngine(t)
	rec := httptest.NewRecorder()
	if err := e.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope", Page{}); err == nil {
		t.Fatal("expected error")
	}
	if rec.Body.Len() != 0 {
		t.Error("partial response written")
	}
}

func TestError(t *testing.T) {
	e := newEngine(t)
	rec := httptest.NewRecorder()
	e.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusInternalServerError, "Something failed.")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Something failed.") {
		t.Errorf("Error() = %d %s", rec.Code, rec.Body.String())
	}
}
