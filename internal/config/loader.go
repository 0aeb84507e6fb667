// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `ADEPT_`, where `__` maps to "."
     (e.g., `ADEPT_CACHE__BACKEND → cache.backend`).

Every string value of the form `vault:<mount>/<path>#<key>` is then
replaced with the secret read through the SecretGetter.  After that the
tree is unmarshalled into strongly-typed structs, defaulted, validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.  `Reload()` calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  - DEBUG: root discovery, YAML read, vault substitutions.
  - ERROR: YAML parse, env overlay, vault, unmarshal, validation failures.
  - INFO:  final "config loaded" with key highlights.
  - Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  - `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
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
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// VaultPrefix marks a value to be read from Vault.
const VaultPrefix = "vault:"

// secretTTL is how long resolved secrets stay in the client cache.
const secretTTL = 5 * time.Minute

// SecretGetter is satisfied by *vault.Client.
type SecretGetter interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// ErrNoSecretGetter is returned when a `vault:` value is present but no
// SecretGetter was supplied.
var ErrNoSecretGetter = errors.New("config: vault reference found but no vault client configured")

var (
	current atomic.Pointer[Config]
	secrets SecretGetter
)

// SetSecretGetter installs the client used by Load and Reload.
func SetSecretGetter(s SecretGetter) { secrets = s }

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

// Load reads .env, YAML, env overrides, resolves vault references,
// validates, and caches Config.
func Load() (*Config, error) {
	cfg, err := loadFrom(context.Background(), rootDir(), secrets)
	if err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

func loadFrom(ctx context.Context, root string, sg SecretGetter) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: ADEPT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("ADEPT_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, "ADEPT_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, sg); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.applyDefaults()
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps every `vault:` string in k for its secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, sg SecretGetter) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, VaultPrefix) {
			continue
		}
		if sg == nil {
			return fmt.Errorf("%w: %s", ErrNoSecretGetter, key)
		}
		path, field, err := ParseVaultRef(s)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		secret, err := sg.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return err
		}
		zap.S().Debugw("config value resolved from vault", "key", key, "path", path)
	}
	return nil
}

// ParseVaultRef splits "vault:<mount>/<path>#<key>".
func ParseVaultRef(s string) (path, key string, err error) {
	ref := strings.TrimPrefix(s, VaultPrefix)
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("config: malformed vault reference %q, want vault:<mount>/<path>#<key>", s)
	}
	return path, key, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
