package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yanizio/adept-auth/internal/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	r := httptest.NewRequest(http.MethodGet, "http://example.com/profile?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/profile?x=1" {
		t.Errorf("Location = %q", loc)
	}

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}(),
		func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}(),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusNoContent {
			t.Errorf("%s: status = %d", r.Host, rec.Code)
		}
	}

	rec = httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("disabled wrapper redirected: %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{
		"Strict-Transport-Security",
		"Content-Security-Policy",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Referrer-Policy",
		"Permissions-Policy",
	} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}

	rec = httptest.NewRecorder()
	Security(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent while disabled")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("generated id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	const inbound = "3f1c5a4e-8f0b-4c1e-9a77-0d2b8f6a1c11"
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, inbound)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != inbound {
		t.Errorf("inbound id not kept: %q", seen)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen == "<script>" {
		t.Error("junk inbound id accepted")
	}
}

func TestAccessLogCountsRequests(t *testing.T) {
	c := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "204")
	before := testutil.ToFloat64(c)

	AccessLog(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("counter delta = %v", got)
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, 0)
	h := rl.Limit(ok)
	before := testutil.ToFloat64(metrics.RateLimitedTotal)

	post := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := post("198.51.100.1:1000"); code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := post("198.51.100.1:1001"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d", code)
	}
	if code := post("198.51.100.2:1000"); code != http.StatusNoContent {
		t.Fatalf("other client throttled: %d", code)
	}
	if got := testutil.ToFloat64(metrics.RateLimitedTotal) - before; got != 1 {
		t.Errorf("RateLimitedTotal delta = %v", got)
	}

	// GETs are never throttled.
	r := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	r.RemoteAddr = "198.51.100.1:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Errorf("GET throttled: %d", rec.Code)
	}
}
