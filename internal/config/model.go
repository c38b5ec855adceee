// internal/config/model.go
//
// Typed configuration model for adept-auth.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • Defaults()                              – compiled-in values,
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `ADEPT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"net/http"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	PublicURL    string        `koanf:"public_url"    validate:"required,url"`
	ForceHTTPS   bool          `koanf:"force_https"`
	TrustProxy   bool          `koanf:"trust_proxy"` // honour X-Forwarded-For
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gt=0"`
}

//
// Session section
//

// Session configures the sealed session cookie.
//
// Secret is required and must be long enough to derive an AES-256 key.
// PreviousSecrets keeps old keys readable during a rotation window.
type Session struct {
	CookieName      string        `koanf:"cookie_name"      validate:"required"`
	Secret          string        `koanf:"secret"           validate:"required,min=32"`
	PreviousSecrets []string      `koanf:"previous_secrets" validate:"dive,min=32"`
	MaxAge          time.Duration `koanf:"max_age"          validate:"gt=0"`
	Secure          bool          `koanf:"secure"`
	SameSite        string        `koanf:"same_site"        validate:"oneof=lax strict none"`
}

// SameSiteMode maps the configured string to net/http's enum.
func (s Session) SameSiteMode() http.SameSite {
	switch strings.ToLower(s.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

//
// Provider section
//

// Provider points at the external auth service (GoTrue-compatible API).
type Provider struct {
	URL            string        `koanf:"url"             validate:"required,url"`
	AnonKey        string        `koanf:"anon_key"        validate:"required"`
	Timeout        time.Duration `koanf:"timeout"         validate:"gt=0"`
	OAuthProviders []string      `koanf:"oauth_providers" validate:"dive,alphanum"`
}

//
// Database section
//

// Database holds the profile database DSN template and secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  When it contains a single `%s` verb the
// *secret* (`Password`) is injected at runtime, keeping credentials out of
// flat files and git history.
type Database struct {
	Driver   string `koanf:"driver"   validate:"oneof=postgres mysql"`
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password"`
	MaxOpen  int    `koanf:"max_open" validate:"gte=1"`
	MaxIdle  int    `koanf:"max_idle" validate:"gte=0"`
	Migrate  bool   `koanf:"migrate"`
}

// ResolvedDSN returns the DSN with Password substituted for its `%s` verb.
func (d Database) ResolvedDSN() string {
	if d.Password == "" || strings.Count(d.DSN, "%s") != 1 {
		return d.DSN
	}
	return strings.Replace(d.DSN, "%s", d.Password, 1)
}

//
// Profiles section
//

// Profiles selects where profile rows live.  "sql" talks to Database
// directly; "rest" goes through the provider's PostgREST endpoint with the
// caller's token so row-level security applies.
type Profiles struct {
	Backend string `koanf:"backend" validate:"oneof=sql rest"`
	Table   string `koanf:"table"   validate:"required,sqlident"`
}

//
// Gate section
//

// Gate bounds how long one authentication check may wait on the provider
// and the profile store.
type Gate struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

//
// Security section
//

// Security holds CSRF and throttling settings.
type Security struct {
	CSRFKey   string  `koanf:"csrf_key"`
	AuthRate  float64 `koanf:"auth_rate"  validate:"gt=0"` // requests per second per IP
	AuthBurst int     `koanf:"auth_burst" validate:"gte=1"`
}

//
// Log section
//

// Log controls the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
}

//
// Geo section
//

// Geo optionally enables a MaxMind country lookup for request info.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // ADEPT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Session  Session  `koanf:"session"`
	Provider Provider `koanf:"provider"`
	Database Database `koanf:"database"`
	Profiles Profiles `koanf:"profiles"`
	Gate     Gate     `koanf:"gate"`
	Security Security `koanf:"security"`
	Log      Log      `koanf:"log"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the compiled-in baseline that YAML and env overlay.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			PublicURL:    "http://localhost:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Session: Session{
			CookieName: "adept_session",
			MaxAge:     14 * 24 * time.Hour,
			SameSite:   "lax",
		},
		Provider: Provider{
			Timeout:        10 * time.Second,
			OAuthProviders: []string{"google"},
		},
		Database: Database{
			Driver:  "postgres",
			MaxOpen: 15,
			MaxIdle: 5,
		},
		Profiles: Profiles{
			Backend: "sql",
			Table:   "profiles",
		},
		Gate: Gate{Timeout: 5 * time.Second},
		Security: Security{
			AuthRate:  0.5,
			AuthBurst: 10,
		},
		Log: Log{Level: "info"},
	}
}
