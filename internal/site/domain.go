// internal/site/domain.go
//
// `localization_domain` row model.
//
// Context
// -------
// A Domain is a registered hostname bound to one Locale and one deployment
// Environment.  Rows are read in bulk by the snapshot builder and singly by
// the protected-domain gate.
//
// Schema reference
//
//	CREATE TABLE localization_domain (
//	    id                 INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    domain             VARCHAR(255) NOT NULL UNIQUE,
//	    https              TINYINT(1)   NOT NULL DEFAULT 0,
//	    is_www             TINYINT(1)   NOT NULL DEFAULT 0,
//	    locale_id          INT UNSIGNED NULL REFERENCES localization_locale(id),
//	    environment        VARCHAR(10)  NOT NULL,
//	    is_default         TINYINT(1)   NOT NULL DEFAULT 0,
//	    is_protected       TINYINT(1)   NOT NULL DEFAULT 1,
//	    protected_password VARCHAR(255) NULL,
//	    inserted_date      TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_date       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
//
// Notes
// -----
//   - `is_default` means default for its (environment, locale) pair.
//   - `locale_id` is nullable at SQL level only; a row without a locale is
//     a data-integrity error reported by the snapshot builder.
package site

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Environment classifies a domain's deployment stage.
type Environment string

const (
	EnvLocalhost  Environment = "localhost"
	EnvBeta       Environment = "beta"
	EnvProduction Environment = "production"
)

// Environments lists every valid Environment.
var Environments = []Environment{EnvLocalhost, EnvBeta, EnvProduction}

// ParseEnvironment validates s.
func ParseEnvironment(s string) (Environment, error) {
	for _, e := range Environments {
		if string(e) == s {
			return e, nil
		}
	}
	return "", invalid("environment", "%q must be one of \"localhost\", \"beta\", \"production\"", s)
}

// MaxHostLength is the column width of `domain`.
const MaxHostLength = 255

const hostLocalhost = "localhost"

// Labels may contain hyphens but not start or end with one.
var hostPattern = regexp.MustCompile(`^(?:[A-Za-z0-9](?:[-A-Za-z0-9]*[A-Za-z0-9])?\.)+[A-Za-z]{2,6}$`)

// Domain mirrors one row in `localization_domain` joined with its locale code.
type Domain struct {
	ID                    uint64       `db:"id"`
	Host                  string       `db:"domain"             validate:"required,max=255"`
	HTTPS                 bool         `db:"https"`
	UseWWW                bool         `db:"is_www"`
	LocaleID              *uint64      `db:"locale_id"`
	LocaleCode            *locale.Code `db:"locale_code"`
	Environment           Environment  `db:"environment"        validate:"oneof=localhost beta production"`
	IsDefault             bool         `db:"is_default"`
	Protected             bool         `db:"is_protected"`
	ProtectedPasswordHash *string      `db:"protected_password"`
	InsertedAt            time.Time    `db:"inserted_date"`
	UpdatedAt             time.Time    `db:"updated_date"`
}

// NormalizeHost lower-cases h, strips a leading "www." and validates the
// hostname.
func NormalizeHost(h string) (string, error) {
	h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
	if h == hostLocalhost {
		return h, nil
	}
	if len(h) > MaxHostLength {
		return "", invalid("domain", "the maximum length is %d characters, but %q given", MaxHostLength, h)
	}
	if !hostPattern.MatchString(h) {
		return "", invalid("domain", "%q is not in valid format", h)
	}
	return h, nil
}

// NewDomain builds an unprotected record bound to loc.
func NewDomain(host string, loc *Locale, env Environment) (*Domain, error) {
	d := &Domain{InsertedAt: time.Now()}
	if err := d.SetHost(host); err != nil {
		return nil, err
	}
	if err := d.SetEnvironment(env); err != nil {
		return nil, err
	}
	d.SetLocale(loc)
	return d, nil
}

func (d *Domain) SetHost(h string) error {
	n, err := NormalizeHost(h)
	if err != nil {
		return err
	}
	d.Host = n
	d.touch()
	return nil
}

func (d *Domain) SetEnvironment(e Environment) error {
	if _, err := ParseEnvironment(string(e)); err != nil {
		return err
	}
	d.Environment = e
	d.touch()
	return nil
}

func (d *Domain) SetLocale(l *Locale) {
	if l == nil {
		d.LocaleID, d.LocaleCode = nil, nil
	} else {
		id, code := l.ID, l.Code
		d.LocaleID, d.LocaleCode = &id, &code
	}
	d.touch()
}

// Locale returns the joined locale code.
func (d *Domain) Locale() (locale.Code, error) {
	if d.LocaleCode == nil || *d.LocaleCode == "" {
		return "", fmt.Errorf("%w: domain %q", ErrDomainLocaleMissing, d.Host)
	}
	return *d.LocaleCode, nil
}

// Scheme is "https" when the HTTPS flag is set.
func (d *Domain) Scheme() string {
	if d.HTTPS {
		return "https"
	}
	return "http"
}

// Validate checks the struct tags plus the hostname pattern.
func (d *Domain) Validate() error {
	if _, err := NormalizeHost(d.Host); err != nil {
		return err
	}
	return validateStruct(d)
}

func (d *Domain) touch() { d.UpdatedAt = time.Now() }
