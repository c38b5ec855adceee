package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `
http:
  listen_addr: ":9090"
  public_url: "https://auth.example.com"
session:
  secret: "vault:secret/adept#session_secret"
  max_age: 48h
provider:
  url: "https://project.supabase.co"
  anon_key: "anon"
database:
  driver: mysql
  dsn: "adept:%s@tcp(db:3306)/adept?parseTime=true"
  password: "vault:secret/adept#db_password"
`

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(root, "conf", "global.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADEPT_ROOT", root)
	return p
}

func TestLoad_YAMLVaultAndEnv(t *testing.T) {
	writeConf(t, testYAML)
	t.Setenv("ADEPT_GATE__TIMEOUT", "2s")
	t.Setenv("ADEPT_PROVIDER__OAUTH_PROVIDERS", "google, github")

	res := fakeResolver{
		"vault:secret/adept#session_secret": strings.Repeat("k", 40),
		"vault:secret/adept#db_password":    "pw",
	}
	cfg, err := Load(context.Background(), Options{Resolver: res})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.ListenAddr != ":9090" {
		t.Errorf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Session.Secret != strings.Repeat("k", 40) {
		t.Errorf("session secret not resolved: %q", cfg.Session.Secret)
	}
	if cfg.Session.MaxAge != 48*time.Hour {
		t.Errorf("max_age = %v", cfg.Session.MaxAge)
	}
	if cfg.Session.CookieName != "adept_session" {
		t.Errorf("default cookie name lost: %q", cfg.Session.CookieName)
	}
	if got := cfg.Database.ResolvedDSN(); got != "adept:pw@tcp(db:3306)/adept?parseTime=true" {
		t.Errorf("dsn = %q", got)
	}
	if cfg.Gate.Timeout != 2*time.Second {
		t.Errorf("gate timeout = %v", cfg.Gate.Timeout)
	}
	if len(cfg.Provider.OAuthProviders) != 2 || cfg.Provider.OAuthProviders[1] != "github" {
		t.Errorf("oauth providers = %v", cfg.Provider.OAuthProviders)
	}
	if Get() != cfg {
		t.Error("Get did not return cached config")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	writeConf(t, `
session:
  secret: "short"
provider:
  url: "https://project.supabase.co"
  anon_key: "anon"
database:
  dsn: "postgres://localhost/adept"
`)
	if _, err := Load(context.Background(), Options{}); err == nil {
		t.Fatal("expected validation error for short session secret")
	}
}

func TestLoad_SQLBackendNeedsDSN(t *testing.T) {
	writeConf(t, `
session:
  secret: "`+strings.Repeat("x", 32)+`"
provider:
  url: "https://project.supabase.co"
  anon_key: "anon"
`)
	_, err := Load(context.Background(), Options{})
	if err == nil || !strings.Contains(err.Error(), "database.dsn") {
		t.Fatalf("err = %v, want database.dsn error", err)
	}
}

func TestLoad_UnresolvableSecret(t *testing.T) {
	writeConf(t, testYAML)
	_, err := Load(context.Background(), Options{Resolver: fakeResolver{}})
	if err == nil {
		t.Fatal("expected error for unresolvable vault reference")
	}
}

func TestResolvedDSN(t *testing.T) {
	d := Database{DSN: "postgres://adept:%s@db/adept", Password: "p"}
	if got := d.ResolvedDSN(); got != "postgres://adept:p@db/adept" {
		t.Errorf("ResolvedDSN = %q", got)
	}
	d = Database{DSN: "postgres://adept@db/adept", Password: "p"}
	if got := d.ResolvedDSN(); got != d.DSN {
		t.Errorf("DSN without verb changed: %q", got)
	}
}
