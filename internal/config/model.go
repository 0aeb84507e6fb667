// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `.env`                         dotenv values
//   - `conf/global.yaml`                      primary static file
//   - `ADEPT_`-prefixed environment overrides highest precedence
//
// Any value whose string begins with `vault:` is resolved through the Vault
// client before unmarshalling, so the model never stores Vault references.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags.
//   - Durations accept Go syntax ("30m", "10s").
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/adept-locale/internal/locale"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
	AdminToken   string        `koanf:"admin_token"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The template (`GlobalDSN`) stays in YAML so operators can tweak host,
// port, or flags without touching Vault.  The secret (`GlobalPassword`) is
// normally a `vault:` reference and is substituted for the single `%s` in
// the template.
type Database struct {
	GlobalDSN      string        `koanf:"global_dsn"      validate:"required"`
	GlobalPassword string        `koanf:"global_password"`
	MaxOpenConns   int           `koanf:"max_open_conns"  validate:"gte=0"`
	MaxIdleConns   int           `koanf:"max_idle_conns"  validate:"gte=0"`
	Retries        int           `koanf:"retries"         validate:"gte=0,lte=10"`
	RetryBackoff   time.Duration `koanf:"retry_backoff"   validate:"gte=0"`
}

// DSN fills the password into the template.
func (d Database) DSN() string {
	if strings.Contains(d.GlobalDSN, "%s") {
		return fmt.Sprintf(d.GlobalDSN, d.GlobalPassword)
	}
	return d.GlobalDSN
}

//
// Cache section
//

// Cache selects where the localization snapshot is shared.
type Cache struct {
	Backend       string        `koanf:"backend"        validate:"omitempty,oneof=memory redis"`
	RedisAddr     string        `koanf:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"       validate:"gte=0"`
	TTL           time.Duration `koanf:"ttl"            validate:"gte=0"`
}

//
// Security section
//

// Security holds password hashing policy for protected domains.
type Security struct {
	BcryptCost int `koanf:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
}

//
// Log section
//

type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
}

//
// Localization section
//

// Localization holds operator-defined fallback chains, e.g.
//
//	localization:
//	  fallbacks:
//	    sk: [cs, en]
type Localization struct {
	Fallbacks map[string][]string `koanf:"fallbacks"`
}

// FallbackChains normalises every key and chain entry.
func (l Localization) FallbackChains() (map[locale.Code][]locale.Code, error) {
	out := make(map[locale.Code][]locale.Code, len(l.Fallbacks))
	for k, chain := range l.Fallbacks {
		code, err := locale.Normalize(k)
		if err != nil {
			return nil, fmt.Errorf("localization.fallbacks: %w", err)
		}
		codes, err := locale.NormalizeAll(chain)
		if err != nil {
			return nil, fmt.Errorf("localization.fallbacks.%s: %w", k, err)
		}
		out[code] = codes
	}
	return out, nil
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
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Security Security `koanf:"security"`
	Log      Log      `koanf:"log"`

	Localization Localization `koanf:"localization"`

	Paths Paths `koanf:"-"`
}

// applyDefaults fills zero values that have a sensible default.
func (c *Config) applyDefaults() {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 15
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.RetryBackoff == 0 {
		c.Database.RetryBackoff = 500 * time.Millisecond
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Minute
	}
	if c.Security.BcryptCost == 0 {
		c.Security.BcryptCost = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
