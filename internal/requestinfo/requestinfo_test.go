package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := ClientIP(r, false).String(); got != "10.0.0.1" {
		t.Errorf("untrusted ClientIP = %s", got)
	}
	if got := ClientIP(r, true).String(); got != "203.0.113.9" {
		t.Errorf("trusted ClientIP = %s", got)
	}
}

func TestParseUA(t *testing.T) {
	ua := ParseUA(chromeMac, "en-GB,en;q=0.9")
	if ua.Browser != "Chrome" {
		t.Errorf("Browser = %q", ua.Browser)
	}
	if ua.Device != "Desktop" {
		t.Errorf("Device = %q", ua.Device)
	}
	if ua.IsBot {
		t.Error("Chrome flagged as bot")
	}
	if ua.PrimaryLang != "en-gb" {
		t.Errorf("PrimaryLang = %q", ua.PrimaryLang)
	}
}

func TestMiddlewareAttachesInfo(t *testing.T) {
	e, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	var got *Info
	h := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	r.Header.Set("User-Agent", chromeMac)
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatal("Info missing from context")
	}
	if got.IP != "192.0.2.7" || got.CountryISO != "" {
		t.Errorf("Info = %+v", got)
	}
}

func TestNewBadGeoPath(t *testing.T) {
	if _, err := New(Options{GeoDBPath: "/nonexistent/geo.mmdb"}); err == nil {
		t.Fatal("expected error for missing geo db")
	}
}
