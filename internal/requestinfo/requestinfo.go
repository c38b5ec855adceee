//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, client IP, country, and timestamp).  These
//  structs are inert.  They hold no handles or large buffers, so they are
//  safe to log or JSON-encode.  The request logger and the auth audit lines
//  read them.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (optional MaxMind lookup)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
//
// Device is one of "Desktop", "Mobile", "Tablet", or "Other".
type UA struct {
	Browser     string // "Chrome", "Firefox", "Safari", etc.
	Version     string // "124.0.6367"
	OS          string
	OSVersion   string
	Device      string
	IsBot       bool
	PrimaryLang string // First tag from Accept-Language ("en", "es", ...)
}

// Info is stored in the request context by Enricher.Middleware.
type Info struct {
	IP         string // client address, "" when unparseable
	CountryISO string // "US", "CA", ...  Empty without a Geo DB.
	UA         UA
	Timestamp  time.Time
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by the middleware.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Geo lookup
//  -----------------------------
//

// geo wraps a MaxMind reader.  A nil *geo answers every lookup with "".
type geo struct{ r *geoip2.Reader }

func openGeo(path string) (*geo, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open geo db %s: %w", path, err)
	}
	return &geo{r: r}, nil
}

func (g *geo) country(ip net.IP) string {
	if g == nil || ip == nil {
		return ""
	}
	rec, err := g.r.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

func (g *geo) close() error {
	if g == nil {
		return nil
	}
	return g.r.Close()
}

//
//  -----------------------------
//  UA helpers
//  -----------------------------
//

// ParseUA converts raw User-Agent and Accept-Language headers into UA.
func ParseUA(raw, acceptLang string) UA {
	u := surfer.Parse(raw)

	out := UA{
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     versionToString(u.Browser.Version),
		OS:          strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion:   versionToString(u.OS.Version),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}
	return out
}

// versionToString renders a version in dotted form while trimming trailing
// zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
