// internal/snapshot/build.go
//
// Snapshot construction from the localization tables.
//
// Workflow
// --------
//  1. ListDomains.  Missing tables → ErrConfigurationMissing; zero rows →
//     ErrEmptyDomainSet.
//  2. Per domain fill the host maps.  The (environment, locale) preferred
//     domain is set when absent or when the row is default, so default
//     rows win and the first-seen row wins otherwise.
//  3. ListActiveLocales (position order).  The first default wins; any
//     further default is recorded as a warning, logged, and counted.
//  4. Display metadata from the same pass.
//  5. Fallback chains from the FallbackPolicy.
//
// Notes
// -----
//   - A domain row without a joined locale does not fail the build.  It is
//     recorded as unlocalised and the resolver reports it for that host
//     only.
//   - Output depends only on row content and order, and both reads carry an
//     ORDER BY, so rebuilds are deterministic.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/metrics"
	"github.com/yanizio/adept-locale/internal/site"
)

var (
	// ErrConfigurationMissing means the localization tables do not exist.
	ErrConfigurationMissing = errors.New("localization database tables do not exist")

	// ErrEmptyDomainSet means the domain table has no rows.
	ErrEmptyDomainSet = errors.New("domain list is empty")

	// ErrNoDefaultLocale means no active locale is flagged as default.
	ErrNoDefaultLocale = errors.New("no active default locale")
)

// FallbackPolicy derives fallback chains for a freshly built snapshot.
type FallbackPolicy interface {
	Fallbacks(available []locale.Code, def locale.Code) map[locale.Code][]locale.Code
}

// FallbackFunc adapts a function to FallbackPolicy.
type FallbackFunc func(available []locale.Code, def locale.Code) map[locale.Code][]locale.Code

func (f FallbackFunc) Fallbacks(available []locale.Code, def locale.Code) map[locale.Code][]locale.Code {
	return f(available, def)
}

// NoFallbacks leaves every chain empty.
var NoFallbacks FallbackPolicy = FallbackFunc(func([]locale.Code, locale.Code) map[locale.Code][]locale.Code {
	return nil
})

// ChainPolicy serves fixed chains.  Chains for locales that are not
// active are dropped, and inactive codes or the locale itself are removed
// from each chain.
func ChainPolicy(chains map[locale.Code][]locale.Code) FallbackPolicy {
	return FallbackFunc(func(available []locale.Code, _ locale.Code) map[locale.Code][]locale.Code {
		out := make(map[locale.Code][]locale.Code)
		for code, chain := range chains {
			if !slices.Contains(available, code) {
				continue
			}
			var kept []locale.Code
			for _, alt := range chain {
				if alt != code && slices.Contains(available, alt) && !slices.Contains(kept, alt) {
					kept = append(kept, alt)
				}
			}
			if len(kept) > 0 {
				out[code] = kept
			}
		}
		return out
	})
}

// Build reads storage and returns a new Snapshot.  A nil policy means
// NoFallbacks.
func Build(ctx context.Context, r site.Reader, policy FallbackPolicy) (*Snapshot, error) {
	if policy == nil {
		policy = NoFallbacks
	}
	s := newSnapshot()
	s.builtAt = time.Now().UTC()

	// 1. domains
	domains, err := r.ListDomains(ctx)
	if err != nil {
		if errors.Is(err, site.ErrTablesMissing) {
			return nil, fmt.Errorf("%w; create tables %q and %q with default data first: %v",
				ErrConfigurationMissing, site.DomainTable, site.LocaleTable, err)
		}
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w; define project domains in table %q", ErrEmptyDomainSet, site.DomainTable)
	}

	// 2. host maps
	for i := range domains {
		d := &domains[i]
		host := d.Host
		s.domainEnvironment[host] = d.Environment
		s.domainProtected[host] = d.Protected
		s.domainScheme[host] = d.Scheme()
		s.domainUseWWW[host] = d.UseWWW

		code, err := d.Locale()
		if err != nil {
			s.unlocalised[host] = true
			s.warn(fmt.Sprintf("domain %q has no locale", host))
			continue
		}
		s.domainLocale[host] = code

		byLocale := s.preferred[d.Environment]
		if byLocale == nil {
			byLocale = map[locale.Code]string{}
			s.preferred[d.Environment] = byLocale
		}
		if _, seen := byLocale[code]; !seen || d.IsDefault {
			byLocale[code] = host
		}
	}

	// 3–4. locales and display metadata
	locales, err := r.ListActiveLocales(ctx)
	if err != nil {
		if errors.Is(err, site.ErrTablesMissing) {
			return nil, fmt.Errorf("%w; create table %q with default data first: %v",
				ErrConfigurationMissing, site.LocaleTable, err)
		}
		return nil, fmt.Errorf("list locales: %w", err)
	}
	for i := range locales {
		l := &locales[i]
		s.available = append(s.available, l.Code)
		if l.IsDefault {
			if s.def == "" {
				s.def = l.Code
			} else {
				s.warn(fmt.Sprintf("multiple default locales: %q and %q are marked as default, keeping %q",
					s.def, l.Code, s.def))
				metrics.DuplicateDefaultLocalesTotal.Inc()
			}
		}
		s.titleSuffix[l.Code] = l.TitleSuffix
		s.titleSeparator[l.Code] = l.TitleSeparator
		s.titleFormat[l.Code] = l.TitleFormat
		s.siteName[l.Code] = l.SiteName
	}
	if s.def == "" {
		return nil, fmt.Errorf("%w; mark one row in %q as default", ErrNoDefaultLocale, site.LocaleTable)
	}

	// 5. fallbacks
	for code, chain := range policy.Fallbacks(s.AvailableLocales(), s.def) {
		s.fallbacks[code] = append([]locale.Code(nil), chain...)
	}
	return s, nil
}

func (s *Snapshot) warn(msg string) {
	s.warnings = append(s.warnings, msg)
	zap.L().Warn("localization snapshot", zap.String("warning", msg))
}
