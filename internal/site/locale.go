// internal/site/locale.go
//
// `localization_locale` row model.
//
// Schema reference
//
//	CREATE TABLE localization_locale (
//	    id              INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    locale          CHAR(2)      NOT NULL UNIQUE,
//	    active          TINYINT(1)   NOT NULL DEFAULT 1,
//	    is_default      TINYINT(1)   NOT NULL DEFAULT 0,
//	    position        SMALLINT     NOT NULL DEFAULT 1,
//	    inserted_date   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    title_suffix    VARCHAR(64)  NULL,
//	    title_separator VARCHAR(8)   NULL,
//	    title_format    VARCHAR(64)  NULL,
//	    site_name       VARCHAR(64)  NULL,
//	    INDEX locale__active (active)
//	);
//
// Notes
// -----
//   - Locales are never hard-deleted; `active = 0` is the soft delete.
//   - At most one row should carry is_default.  The snapshot builder keeps
//     the first one and reports the rest.
package site

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Position bounds match the SMALLINT column.
const (
	MinPosition = 0
	MaxPosition = 32767
)

// Locale mirrors one row in `localization_locale`.
type Locale struct {
	ID             uint64      `db:"id"`
	Code           locale.Code `db:"locale"          validate:"len=2,lowercase,alpha"`
	Active         bool        `db:"active"`
	IsDefault      bool        `db:"is_default"`
	Position       int         `db:"position"        validate:"min=0,max=32767"`
	InsertedAt     time.Time   `db:"inserted_date"`
	TitleSuffix    *string     `db:"title_suffix"    validate:"omitempty,max=64"`
	TitleSeparator *string     `db:"title_separator" validate:"omitempty,max=8"`
	TitleFormat    *string     `db:"title_format"    validate:"omitempty,max=64"`
	SiteName       *string     `db:"site_name"       validate:"omitempty,max=64"`
}

// NewLocale normalises code and returns an active, non-default record.
func NewLocale(code string) (*Locale, error) {
	c, err := locale.Normalize(code)
	if err != nil {
		return nil, err
	}
	return &Locale{
		Code:       c,
		Active:     true,
		Position:   1,
		InsertedAt: time.Now(),
	}, nil
}

// SetPosition clamps p into [MinPosition, MaxPosition].
func (l *Locale) SetPosition(p int) {
	switch {
	case p < MinPosition:
		p = MinPosition
	case p > MaxPosition:
		p = MaxPosition
	}
	l.Position = p
}

func (l *Locale) SetTitleSuffix(s *string) (err error) {
	l.TitleSuffix, err = optionalText("title suffix", s, 64)
	return err
}

func (l *Locale) SetTitleSeparator(s *string) (err error) {
	l.TitleSeparator, err = optionalText("title separator", s, 8)
	return err
}

func (l *Locale) SetTitleFormat(s *string) (err error) {
	l.TitleFormat, err = optionalText("title format", s, 64)
	return err
}

func (l *Locale) SetSiteName(s *string) (err error) {
	l.SiteName, err = optionalText("site name", s, 64)
	return err
}

// Validate checks the struct tags.  Rows read from storage are trusted;
// this is for records built by admin tooling.
func (l *Locale) Validate() error { return validateStruct(l) }

// optionalText enforces a rune limit, trims, and maps "" to nil.
func optionalText(field string, s *string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	if utf8.RuneCountInString(*s) > max {
		return nil, invalid(field, "the maximum length is %d characters, but %q given", max, *s)
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil, nil
	}
	return &t, nil
}
