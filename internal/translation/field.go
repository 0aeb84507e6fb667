package translation

import (
	"database/sql/driver"
	"fmt"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Field is a translatable entity column.  It scans straight from sqlx and
// decodes lazily, because a legacy bare string can only be bound to a locale
// once a LocaleSource is at hand.
//
//	type Page struct {
//	    Title translation.Field `db:"title"`
//	}
//
//	title, err := page.Title.Get(res.AsSource(ctx))
//	changed, err := page.Title.Set(src, &text, "cs")
type Field struct {
	raw   *string
	value *Value
}

// NewField wraps an existing Value.
func NewField(v *Value) Field { return Field{value: v} }

// Get returns the translation for the current locale.
func (f *Field) Get(src LocaleSource) (string, error) {
	v, err := f.Resolve(src)
	if err != nil {
		return "", err
	}
	if v == nil {
		return NoData, nil
	}
	return v.Get(src)
}

// Translation is Value.Translation on the decoded column.
func (f *Field) Translation(src LocaleSource, code locale.Code, fallback bool) (string, error) {
	v, err := f.Resolve(src)
	if err != nil {
		return "", err
	}
	if v == nil {
		return NoData, nil
	}
	return v.Translation(src, code, fallback)
}

// Set stores text under code and reports whether anything changed.  A
// changed Value is regenerated so its startup state matches storage form.
func (f *Field) Set(src LocaleSource, text *string, code locale.Code) (bool, error) {
	v, err := f.Resolve(src)
	if err != nil {
		return false, err
	}
	if v == nil {
		if text == nil {
			return false, nil
		}
		v = &Value{}
	}

	changed, err := v.Set(src, text, code)
	if err != nil || !changed {
		return false, err
	}
	regen, err := v.Regenerate()
	if err != nil {
		return false, err
	}
	f.value = regen
	return true, nil
}

// Resolve decodes the scanned column, if any, and returns the Value.  A nil
// Value means the column was NULL.
func (f *Field) Resolve(src LocaleSource) (*Value, error) {
	if f.value != nil || f.raw == nil {
		return f.value, nil
	}
	v, err := New(f.raw, "", src)
	if err != nil {
		return nil, err
	}
	f.value = v
	f.raw = nil
	return v, nil
}

// Scan implements sql.Scanner.
func (f *Field) Scan(src any) error {
	f.value = nil
	switch s := src.(type) {
	case nil:
		f.raw = nil
	case string:
		f.raw = &s
	case []byte:
		str := string(s)
		f.raw = &str
	default:
		return fmt.Errorf("translation: cannot scan %T into Field", src)
	}
	return nil
}

// Value implements driver.Valuer.  An undecoded legacy column is written
// back unchanged.
func (f Field) Value() (driver.Value, error) {
	switch {
	case f.value != nil:
		return f.value.Serialize()
	case f.raw != nil:
		return *f.raw, nil
	default:
		return nil, nil
	}
}
