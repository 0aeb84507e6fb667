// internal/snapshot/snapshot.go
//
// Read-only localization configuration built from storage.
//
// Context
// -------
// A Snapshot captures every domain and active locale at one instant.  The
// resolver reads it on each request, so lookups are plain map reads with no
// locking.  Snapshots never change after Build returns; accessors hand out
// copies of slices and maps.
//
// The JSON form is what the shared cache stores.  Field names are stable;
// changing one invalidates every cached entry on deploy, which is harmless
// because a decode failure is treated as a miss.
package snapshot

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/site"
)

// Snapshot is the immutable resolution configuration.
type Snapshot struct {
	available []locale.Code
	def       locale.Code
	fallbacks map[locale.Code][]locale.Code

	titleSuffix    map[locale.Code]*string
	titleSeparator map[locale.Code]*string
	titleFormat    map[locale.Code]*string
	siteName       map[locale.Code]*string

	domainLocale      map[string]locale.Code
	domainEnvironment map[string]site.Environment
	domainProtected   map[string]bool
	domainScheme      map[string]string
	domainUseWWW      map[string]bool
	preferred         map[site.Environment]map[locale.Code]string
	unlocalised       map[string]bool

	warnings []string
	builtAt  time.Time
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		fallbacks:         map[locale.Code][]locale.Code{},
		titleSuffix:       map[locale.Code]*string{},
		titleSeparator:    map[locale.Code]*string{},
		titleFormat:       map[locale.Code]*string{},
		siteName:          map[locale.Code]*string{},
		domainLocale:      map[string]locale.Code{},
		domainEnvironment: map[string]site.Environment{},
		domainProtected:   map[string]bool{},
		domainScheme:      map[string]string{},
		domainUseWWW:      map[string]bool{},
		preferred:         map[site.Environment]map[locale.Code]string{},
		unlocalised:       map[string]bool{},
	}
}

// AvailableLocales returns active locales in position order.
func (s *Snapshot) AvailableLocales() []locale.Code { return slices.Clone(s.available) }

// DefaultLocale is the first active locale flagged as default.
func (s *Snapshot) DefaultLocale() locale.Code { return s.def }

// FallbackLocales returns the fallback chain for code, or nil.
func (s *Snapshot) FallbackLocales(code locale.Code) []locale.Code {
	return slices.Clone(s.fallbacks[code])
}

// FallbackMap returns a copy of every fallback chain.
func (s *Snapshot) FallbackMap() map[locale.Code][]locale.Code {
	out := make(map[locale.Code][]locale.Code, len(s.fallbacks))
	for k, v := range s.fallbacks {
		out[k] = slices.Clone(v)
	}
	return out
}

// DomainLocale looks up the locale bound to host.  Hosts whose row has no
// joined locale are reported by Unlocalised instead.
func (s *Snapshot) DomainLocale(host string) (locale.Code, bool) {
	c, ok := s.domainLocale[host]
	return c, ok
}

// Unlocalised reports whether host is registered but has no locale.
func (s *Snapshot) Unlocalised(host string) bool { return s.unlocalised[host] }

// DomainEnvironment looks up the environment of host.
func (s *Snapshot) DomainEnvironment(host string) (site.Environment, bool) {
	e, ok := s.domainEnvironment[host]
	return e, ok
}

// Known reports whether host is a registered domain.
func (s *Snapshot) Known(host string) bool {
	_, ok := s.domainEnvironment[host]
	return ok
}

func (s *Snapshot) Protected(host string) bool { return s.domainProtected[host] }

// Scheme returns "https" or "http", or "" for unknown hosts.
func (s *Snapshot) Scheme(host string) string { return s.domainScheme[host] }

func (s *Snapshot) UseWWW(host string) bool { return s.domainUseWWW[host] }

// Domains returns every registered host, sorted.
func (s *Snapshot) Domains() []string {
	return slices.Sorted(maps.Keys(s.domainEnvironment))
}

// PreferredDomain returns the representative host for (env, code).
func (s *Snapshot) PreferredDomain(env site.Environment, code locale.Code) (string, bool) {
	h, ok := s.preferred[env][code]
	return h, ok
}

// URL builds "scheme://[www.]host" for the preferred domain of (env, code).
func (s *Snapshot) URL(env site.Environment, code locale.Code) (string, bool) {
	h, ok := s.PreferredDomain(env, code)
	if !ok {
		return "", false
	}
	return s.CanonicalBase(h), true
}

// CanonicalBase builds "scheme://[www.]host" for a registered host.
func (s *Snapshot) CanonicalBase(host string) string {
	scheme := s.domainScheme[host]
	if scheme == "" {
		scheme = "http"
	}
	if s.domainUseWWW[host] {
		host = "www." + host
	}
	return scheme + "://" + host
}

// Display metadata; nil means not configured.
func (s *Snapshot) TitleSuffix(code locale.Code) *string    { return s.titleSuffix[code] }
func (s *Snapshot) TitleSeparator(code locale.Code) *string { return s.titleSeparator[code] }
func (s *Snapshot) TitleFormat(code locale.Code) *string    { return s.titleFormat[code] }
func (s *Snapshot) SiteName(code locale.Code) *string       { return s.siteName[code] }

// Warnings lists non-fatal inconsistencies found while building.
func (s *Snapshot) Warnings() []string { return slices.Clone(s.warnings) }

func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

//
// JSON form
//

type wire struct {
	AvailableLocales    []locale.Code                               `json:"availableLocales"`
	DefaultLocale       locale.Code                                 `json:"defaultLocale"`
	FallbackLocales     map[locale.Code][]locale.Code               `json:"fallbackLocales"`
	TitleSuffix         map[locale.Code]*string                     `json:"localeToTitleSuffix"`
	TitleSeparator      map[locale.Code]*string                     `json:"localeToTitleSeparator"`
	TitleFormat         map[locale.Code]*string                     `json:"localeToTitleFormat"`
	SiteName            map[locale.Code]*string                     `json:"localeToSiteName"`
	DomainToLocale      map[string]locale.Code                      `json:"domainToLocale"`
	DomainToEnvironment map[string]site.Environment                 `json:"domainToEnvironment"`
	DomainToProtected   map[string]bool                             `json:"domainToProtected"`
	DomainToScheme      map[string]string                           `json:"domainToScheme"`
	DomainToUseWWW      map[string]bool                             `json:"domainToUseWww"`
	DomainByEnvironment map[site.Environment]map[locale.Code]string `json:"domainByEnvironment"`
	Unlocalised         map[string]bool                             `json:"unlocalisedDomains,omitempty"`
	Warnings            []string                                    `json:"warnings,omitempty"`
	BuiltAt             time.Time                                   `json:"builtAt"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		AvailableLocales:    s.available,
		DefaultLocale:       s.def,
		FallbackLocales:     s.fallbacks,
		TitleSuffix:         s.titleSuffix,
		TitleSeparator:      s.titleSeparator,
		TitleFormat:         s.titleFormat,
		SiteName:            s.siteName,
		DomainToLocale:      s.domainLocale,
		DomainToEnvironment: s.domainEnvironment,
		DomainToProtected:   s.domainProtected,
		DomainToScheme:      s.domainScheme,
		DomainToUseWWW:      s.domainUseWWW,
		DomainByEnvironment: s.preferred,
		Unlocalised:         s.unlocalised,
		Warnings:            s.warnings,
		BuiltAt:             s.builtAt,
	})
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	n := newSnapshot()
	n.available = w.AvailableLocales
	n.def = w.DefaultLocale
	n.warnings = w.Warnings
	n.builtAt = w.BuiltAt
	maps.Copy(n.fallbacks, w.FallbackLocales)
	maps.Copy(n.titleSuffix, w.TitleSuffix)
	maps.Copy(n.titleSeparator, w.TitleSeparator)
	maps.Copy(n.titleFormat, w.TitleFormat)
	maps.Copy(n.siteName, w.SiteName)
	maps.Copy(n.domainLocale, w.DomainToLocale)
	maps.Copy(n.domainEnvironment, w.DomainToEnvironment)
	maps.Copy(n.domainProtected, w.DomainToProtected)
	maps.Copy(n.domainScheme, w.DomainToScheme)
	maps.Copy(n.domainUseWWW, w.DomainToUseWWW)
	maps.Copy(n.preferred, w.DomainByEnvironment)
	maps.Copy(n.unlocalised, w.Unlocalised)
	*s = *n
	return nil
}
