// internal/translation/value.go
//
// Multi-locale string container.
//
// Context
// -------
// Entity columns that carry user-facing text hold one string per locale.
// A Value keeps those strings in insertion order together with a frozen
// copy of what was decoded from storage, so callers can tell a real edit
// from a no-op write.
//
// Resolution order for Translation:
//
//  1. exact locale match,
//  2. NoData when fallback is disabled,
//  3. the source's fallback chain for the locale, in order,
//  4. the first stored entry.
//
// An empty Value answers NoData instead of failing; legacy rows are
// occasionally blank and must still render.
package translation

import (
	"errors"

	"github.com/yanizio/adept-locale/internal/locale"
)

// NoData is returned when no translation can be produced.
const NoData = "#NO_DATA#"

// ErrNoLocale is returned when a locale is needed but no source can supply
// one.
var ErrNoLocale = errors.New("translation: no locale available")

// Entry is one locale → text pair.
type Entry struct {
	Locale locale.Code
	Text   string
}

// Value is an ordered locale → text mapping.  Not safe for concurrent
// mutation.
type Value struct {
	entries []Entry
	startup []Entry
}

// New builds a Value from a stored column.
//
//   - raw == nil: empty container.
//   - tagged raw: decoded JSON object, also kept as startup state.
//   - bare raw: one entry keyed by explicit, or by src's current locale.
func New(raw *string, explicit locale.Code, src LocaleSource) (*Value, error) {
	v := &Value{}
	if raw == nil {
		return v, nil
	}
	if IsTagged(*raw) {
		entries, err := decode(*raw)
		if err != nil {
			return nil, err
		}
		v.entries = entries
		v.startup = cloneEntries(entries)
		return v, nil
	}

	code, err := pickLocale(explicit, src, true)
	if err != nil {
		return nil, err
	}
	v.entries = []Entry{{Locale: code, Text: *raw}}
	return v, nil
}

// Parse is New for a non-null column.
func Parse(raw string, src LocaleSource) (*Value, error) {
	return New(&raw, "", src)
}

// FromEntries builds a Value from ordered entries; later duplicates
// overwrite earlier ones in place.
func FromEntries(entries ...Entry) *Value {
	v := &Value{}
	for _, e := range entries {
		v.put(e.Locale, e.Text)
	}
	return v
}

// Empty reports whether the container holds no entries.
func (v *Value) Empty() bool { return len(v.entries) == 0 }

// Translation returns the best text for code.  An empty code resolves
// through src, falling back to the context locale.
func (v *Value) Translation(src LocaleSource, code locale.Code, fallback bool) (string, error) {
	code, err := pickLocale(code, src, true)
	if err != nil {
		return "", err
	}
	if len(v.entries) == 0 {
		return NoData, nil
	}
	if text, ok := v.lookup(code); ok {
		return text, nil
	}
	if !fallback {
		return NoData, nil
	}
	if src != nil {
		for _, alt := range src.FallbackLocales(code) {
			if text, ok := v.lookup(alt); ok {
				return text, nil
			}
		}
	}
	return v.entries[0].Text, nil
}

// Get is Translation for the current locale with fallback enabled.
func (v *Value) Get(src LocaleSource) (string, error) {
	return v.Translation(src, "", true)
}

// In returns the exact entry for code, if any.
func (v *Value) In(code locale.Code) (string, bool) {
	return v.lookup(code)
}

// Set stores text under code (or the current locale) and reports whether
// the stored state changed.  A nil text deletes the entry.
func (v *Value) Set(src LocaleSource, text *string, code locale.Code) (bool, error) {
	code, err := pickLocale(code, src, true)
	if err != nil {
		return false, err
	}
	if text == nil {
		return v.remove(code), nil
	}
	if cur, ok := v.lookup(code); ok && cur == *text {
		return false, nil
	}
	v.put(code, *text)
	return true, nil
}

// Serialize renders the tagged storage form.
func (v *Value) Serialize() (string, error) {
	return encode(v.entries)
}

// Regenerate round-trips the Value through its storage form.
func (v *Value) Regenerate() (*Value, error) {
	raw, err := v.Serialize()
	if err != nil {
		return nil, err
	}
	return New(&raw, "", nil)
}

// Storage returns a copy of the entries in canonical order.
func (v *Value) Storage() []Entry { return cloneEntries(v.entries) }

// StartupState returns the entries as decoded from storage.
func (v *Value) StartupState() []Entry { return cloneEntries(v.startup) }

// Map returns the entries as a map; order is lost.
func (v *Value) Map() map[locale.Code]string {
	m := make(map[locale.Code]string, len(v.entries))
	for _, e := range v.entries {
		m[e.Locale] = e.Text
	}
	return m
}

// Dirty reports whether the entries differ from the startup state.
func (v *Value) Dirty() bool {
	if len(v.entries) != len(v.startup) {
		return true
	}
	for i := range v.entries {
		if v.entries[i] != v.startup[i] {
			return true
		}
	}
	return false
}

func (v *Value) lookup(code locale.Code) (string, bool) {
	for _, e := range v.entries {
		if e.Locale == code {
			return e.Text, true
		}
	}
	return "", false
}

func (v *Value) put(code locale.Code, text string) {
	for i := range v.entries {
		if v.entries[i].Locale == code {
			v.entries[i].Text = text
			return
		}
	}
	v.entries = append(v.entries, Entry{Locale: code, Text: text})
}

func (v *Value) remove(code locale.Code) bool {
	for i := range v.entries {
		if v.entries[i].Locale == code {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return true
		}
	}
	return false
}

func pickLocale(code locale.Code, src LocaleSource, useContext bool) (locale.Code, error) {
	if code != "" {
		return code, nil
	}
	if src == nil {
		return "", ErrNoLocale
	}
	return src.CurrentLocale(useContext)
}

func cloneEntries(in []Entry) []Entry {
	if in == nil {
		return nil
	}
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
