// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from these layers (highest
precedence last):

  1. Defaults() compiled into the binary.
  2. Optional `.env` file at `<root>/conf/.env`.
  3. `conf/global.yaml` (or the file named by --config).
  4. Environment variables prefixed `ADEPT_`, where `__` maps to “.”
     (e.g., `ADEPT_HTTP__LISTEN_ADDR → http.listen_addr`).  Comma-separated
     values become lists.

After merging, every string leaf that starts with `vault:` is swapped for the
secret it names.  The tree is then unmarshalled over Defaults(), validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.

Instrumentation
---------------
  • DEBUG spans, root discovery, YAML read, env overlay.
  • ERROR spans, YAML parse, env overlay, vault resolution, validation.
  • INFO  span, final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/vault"
)

const envPrefix = "ADEPT_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its value.
// *vault.Client satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Options tweaks Load.  The zero value discovers conf/global.yaml and
// creates a Vault client only if a reference is present.
type Options struct {
	Path     string         // explicit YAML path; must exist when set
	Resolver SecretResolver // overrides the lazily built Vault client
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ADEPT_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("ADEPT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.  ctx bounds Vault lookups and the Vault renewal loop.
func Load(ctx context.Context, opts Options) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := opts.Path
	if yamlPath == "" {
		yamlPath = filepath.Join(root, "conf", "global.yaml")
	}
	if _, err := os.Stat(yamlPath); errors.Is(err, os.ErrNotExist) && opts.Path == "" {
		zap.S().Debugw("config yaml absent, using defaults and env", "file", yamlPath)
	} else {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config: load %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config: env overlay: %w", err)
	}

	if err := resolveSecrets(ctx, k, opts.Resolver); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config: %w", err)
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"public_url", cfg.HTTP.PublicURL,
		"profiles_backend", cfg.Profiles.Backend,
		"db_driver", cfg.Database.Driver,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// envValue maps ADEPT_HTTP__LISTEN_ADDR → http.listen_addr and splits
// comma-separated values into lists.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, envPrefix), "__", "."))
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// resolveSecrets replaces every `vault:` leaf in k.  The Vault client is
// only built when at least one reference exists.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, r SecretResolver) error {
	refs := map[string]any{}
	for key, val := range k.All() {
		switch tv := val.(type) {
		case string:
			if vault.IsRef(tv) {
				refs[key] = tv
			}
		case []any:
			for _, item := range tv {
				if s, ok := item.(string); ok && vault.IsRef(s) {
					refs[key] = tv
					break
				}
			}
		case []string:
			for _, s := range tv {
				if vault.IsRef(s) {
					refs[key] = tv
					break
				}
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	if r == nil {
		cli, err := vault.New(ctx, zap.S())
		if err != nil {
			return fmt.Errorf("config: vault: %w", err)
		}
		r = cli
	}

	resolve := func(key, s string) (string, error) {
		if !vault.IsRef(s) {
			return s, nil
		}
		out, err := r.Resolve(ctx, s)
		if err != nil {
			return "", fmt.Errorf("config: resolve %s: %w", key, err)
		}
		return out, nil
	}

	for key, val := range refs {
		var resolved any
		switch tv := val.(type) {
		case string:
			s, err := resolve(key, tv)
			if err != nil {
				return err
			}
			resolved = s
		case []any:
			out := make([]string, 0, len(tv))
			for _, item := range tv {
				s, err := resolve(key, fmt.Sprint(item))
				if err != nil {
					return err
				}
				out = append(out, s)
			}
			resolved = out
		case []string:
			out := make([]string, 0, len(tv))
			for _, item := range tv {
				s, err := resolve(key, item)
				if err != nil {
					return err
				}
				out = append(out, s)
			}
			resolved = out
		}
		if err := k.Set(key, resolved); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

// Get returns the most recently loaded Config, or nil before Load.
func Get() *Config { return current.Load() }
