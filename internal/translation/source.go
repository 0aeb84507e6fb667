package translation

import "github.com/yanizio/adept-locale/internal/locale"

// LocaleSource supplies the ambient locale and fallback chains.  Request
// code passes the per-request resolver; background jobs pass a Static
// source seeded with the default locale.
type LocaleSource interface {
	CurrentLocale(useContextFallback bool) (locale.Code, error)
	FallbackLocales(code locale.Code) []locale.Code
}

// Static is a fixed LocaleSource.
type Static struct {
	Locale    locale.Code
	Fallbacks map[locale.Code][]locale.Code
}

func (s Static) CurrentLocale(bool) (locale.Code, error) {
	if s.Locale == "" {
		return "", ErrNoLocale
	}
	return s.Locale, nil
}

func (s Static) FallbackLocales(code locale.Code) []locale.Code {
	return s.Fallbacks[code]
}
