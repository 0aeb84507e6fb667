package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeVault map[string]string

func (f fakeVault) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

const baseYAML = `
http:
  listen_addr: "127.0.0.1:8080"
database:
  global_dsn: "adept:%s@tcp(127.0.0.1:3306)/adept?parseTime=true"
  global_password: "vault:secret/adept/db#password"
cache:
  backend: redis
  redis_addr: "redis://127.0.0.1:6379"
  ttl: 45m
`

func TestLoad_VaultAndDefaults(t *testing.T) {
	root := writeYAML(t, baseYAML)
	cfg, err := loadFrom(context.Background(), root, fakeVault{"secret/adept/db#password": "s3cret"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Database.DSN(); got != "adept:s3cret@tcp(127.0.0.1:3306)/adept?parseTime=true" {
		t.Fatalf("DSN = %q", got)
	}
	if cfg.Cache.TTL != 45*time.Minute || cfg.Cache.Backend != "redis" {
		t.Fatalf("cache = %+v", cfg.Cache)
	}
	if cfg.Security.BcryptCost != 10 || cfg.HTTP.ReadTimeout != 10*time.Second || cfg.Log.Level != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q", cfg.Paths.Root)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	root := writeYAML(t, baseYAML)
	t.Setenv("ADEPT_CACHE__BACKEND", "memory")
	t.Setenv("ADEPT_SECURITY__BCRYPT_COST", "12")
	cfg, err := loadFrom(context.Background(), root, fakeVault{"secret/adept/db#password": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != "memory" || cfg.Security.BcryptCost != 12 {
		t.Fatalf("env overlay ignored: %+v %+v", cfg.Cache, cfg.Security)
	}
}

func TestLoad_VaultWithoutClient(t *testing.T) {
	root := writeYAML(t, baseYAML)
	if _, err := loadFrom(context.Background(), root, nil); !errors.Is(err, ErrNoSecretGetter) {
		t.Fatalf("want ErrNoSecretGetter, got %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	root := writeYAML(t, `
http:
  listen_addr: "127.0.0.1:8080"
database:
  global_dsn: "root@tcp(127.0.0.1:3306)/adept"
cache:
  backend: memcached
`)
	if _, err := loadFrom(context.Background(), root, nil); err == nil {
		t.Fatal("unknown cache backend accepted")
	}

	root = writeYAML(t, `
http:
  listen_addr: "127.0.0.1:8080"
database:
  global_dsn: "root@tcp(127.0.0.1:3306)/adept"
cache:
  backend: redis
`)
	if _, err := loadFrom(context.Background(), root, nil); err == nil {
		t.Fatal("redis backend without address accepted")
	}
}

func TestParseVaultRef(t *testing.T) {
	p, k, err := ParseVaultRef("vault:secret/adept/db#password")
	if err != nil || p != "secret/adept/db" || k != "password" {
		t.Fatalf("got %q %q %v", p, k, err)
	}
	for _, bad := range []string{"vault:secret", "vault:secret/db", "vault:#k", "vault:nomount#k"} {
		if _, _, err := ParseVaultRef(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestLoad_FallbackChains(t *testing.T) {
	root := writeYAML(t, baseYAML+`
localization:
  fallbacks:
    sk: [cs-CZ, EN]
`)
	cfg, err := loadFrom(context.Background(), root, fakeVault{"secret/adept/db#password": "x"})
	if err != nil {
		t.Fatal(err)
	}
	chains, err := cfg.Localization.FallbackChains()
	if err != nil {
		t.Fatal(err)
	}
	if got := chains["sk"]; len(got) != 2 || got[0] != "cs" || got[1] != "en" {
		t.Fatalf("sk chain = %v", got)
	}
}

func TestLoad_FallbackChainsInvalid(t *testing.T) {
	root := writeYAML(t, baseYAML+`
localization:
  fallbacks:
    sk: [cs, english]
`)
	if _, err := loadFrom(context.Background(), root, fakeVault{"secret/adept/db#password": "x"}); err == nil {
		t.Fatal("invalid fallback code accepted")
	}
}
