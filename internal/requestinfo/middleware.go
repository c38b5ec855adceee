// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info.
//
/*
Context
--------
This handler sits high in the chain, right after the request id and before
logging, rate limiting, and the auth gate.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the client IP.  With TrustProxy set the left-most address in
     X-Forwarded-For or X-Real-IP wins, otherwise `r.RemoteAddr` is used.
  3. Performs an optional GeoLite2 country lookup.
  4. Stores a `*Info` value in `request.Context` so the logger, the rate
     limiter, and the auth handlers can read it without reparsing.

Notes
-----
  • Lookups are read-only, so the middleware is safe under heavy
    concurrency.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures an Enricher.
type Options struct {
	GeoDBPath  string // MaxMind Country or City DB; "" disables geo
	TrustProxy bool   // honour X-Forwarded-For / X-Real-IP
}

// Enricher owns the geo reader shared by every request.
type Enricher struct {
	geo        *geo
	trustProxy bool
}

// New opens the geo database when configured.
func New(opts Options) (*Enricher, error) {
	g, err := openGeo(opts.GeoDBPath)
	if err != nil {
		return nil, err
	}
	return &Enricher{geo: g, trustProxy: opts.TrustProxy}, nil
}

// Close releases the geo reader.
func (e *Enricher) Close() error { return e.geo.close() }

/*──────────────────────────── middleware ───────────────────────────────────*/

// Middleware wraps an http.Handler, attaches *Info, and forwards.
func (e *Enricher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, e.trustProxy)

		info := &Info{
			CountryISO: e.geo.country(ip),
			UA:         ParseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Timestamp:  time.Now().UTC(),
		}
		if ip != nil {
			info.IP = ip.String()
		}

		zap.S().Debugw("request info",
			"ip", info.IP,
			"country", info.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// ClientIP returns the caller's address.  Forwarding headers are consulted
// only when trustProxy is true.
func ClientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, part := range strings.Split(xff, ",") {
				if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
					return ip
				}
			}
		}
		if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
			if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
