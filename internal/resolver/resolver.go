// internal/resolver/resolver.go
//
// Per-request locale resolution.
//
// Context
// -------
// A Resolver answers "which locale and environment apply to this request".
// It merges four signals in priority order:
//
//  1. explicit locale  (SetLocale, e.g. from routing)
//  2. query locale     (the `locale` URL parameter)
//  3. domain locale    (snapshot lookup for the request host)
//  4. context locale   (SetContextLocale; only when the caller asks for it)
//
// A background Resolver has no request and resolves straight to the
// snapshot's default locale.
//
// Notes
// -----
//   - One Resolver serves one request.  Signal setters are not synchronised.
//   - The snapshot is fetched once per Resolver and memoised; that part is
//     safe for concurrent use so a background Resolver can be shared.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanizio/adept-locale/internal/locale"
	"github.com/yanizio/adept-locale/internal/metrics"
	"github.com/yanizio/adept-locale/internal/site"
	"github.com/yanizio/adept-locale/internal/snapshot"
	"github.com/yanizio/adept-locale/internal/translation"
)

// SnapshotStore is the slice of snapshot.Store the resolver needs.
type SnapshotStore interface {
	Get(ctx context.Context) (*snapshot.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// Resolver holds the locale signals of one request.
type Resolver struct {
	store      SnapshotStore
	background bool

	defined   locale.Code
	query     locale.Code
	ctxLocale locale.Code
	host      string

	mu   sync.Mutex
	snap *snapshot.Snapshot
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithSnapshot pre-seeds the memoised snapshot.
func WithSnapshot(s *snapshot.Snapshot) Option {
	return func(r *Resolver) { r.snap = s }
}

// New returns a request-scoped Resolver.
func New(store SnapshotStore, opts ...Option) *Resolver {
	r := &Resolver{store: store}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewBackground returns a Resolver for code running outside a request.
func NewBackground(store SnapshotStore, opts ...Option) *Resolver {
	r := New(store, opts...)
	r.background = true
	return r
}

// Background reports whether r was built by NewBackground.
func (r *Resolver) Background() bool { return r.background }

// SetLocale sets the explicit locale, which beats every other signal.
func (r *Resolver) SetLocale(s string) error {
	c, err := locale.Normalize(s)
	if err != nil {
		return err
	}
	r.defined = c
	return nil
}

// SetContextLocale sets the locale used when resolution is asked to fall
// back to context.
func (r *Resolver) SetContextLocale(s string) error {
	c, err := locale.Normalize(s)
	if err != nil {
		return err
	}
	r.ctxLocale = c
	return nil
}

func (r *Resolver) ContextLocale() locale.Code { return r.ctxLocale }

// Host is the normalised request host, or "".
func (r *Resolver) Host() string { return r.host }

// Ingest records the request host and the raw `locale` query parameter.
// A malformed parameter is returned and not stored; the caller decides
// whether to redirect.
func (r *Resolver) Ingest(host string, query *string) *locale.FormatError {
	r.host = NormalizeHost(host)
	if query == nil {
		return nil
	}
	c, err := locale.Normalize(*query)
	if err != nil {
		return &locale.FormatError{Input: *query}
	}
	r.query = c
	return nil
}

// ResolveLocale returns the effective locale.
func (r *Resolver) ResolveLocale(ctx context.Context, useContextFallback bool) (locale.Code, error) {
	if r.background {
		s, err := r.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		metrics.ResolutionsTotal.WithLabelValues("background").Inc()
		return s.DefaultLocale(), nil
	}

	if r.defined != "" {
		metrics.ResolutionsTotal.WithLabelValues("defined").Inc()
		return r.defined, nil
	}
	if r.query != "" {
		metrics.ResolutionsTotal.WithLabelValues("query").Inc()
		return r.query, nil
	}

	var cause error
	if r.host != "" {
		s, err := r.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		if c, ok := s.DomainLocale(r.host); ok {
			metrics.ResolutionsTotal.WithLabelValues("domain").Inc()
			return c, nil
		}
		if s.Unlocalised(r.host) {
			cause = fmt.Errorf("%w: domain %q", site.ErrDomainLocaleMissing, r.host)
		}
	}

	if useContextFallback {
		if r.ctxLocale != "" {
			metrics.ResolutionsTotal.WithLabelValues("context").Inc()
			return r.ctxLocale, nil
		}
		metrics.ResolutionsTotal.WithLabelValues("failed").Inc()
		return "", &ResolutionError{Host: r.host, ContextEmpty: true, Cause: cause}
	}

	metrics.ResolutionsTotal.WithLabelValues("failed").Inc()
	return "", &ResolutionError{Host: r.host, Cause: cause}
}

// Environment returns the deployment environment of the request host.
// Background resolvers, requests without a host, and unknown hosts are
// production.
func (r *Resolver) Environment(ctx context.Context) (site.Environment, error) {
	if r.background || r.host == "" {
		return site.EnvProduction, nil
	}
	s, err := r.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if e, ok := s.DomainEnvironment(r.host); ok {
		return e, nil
	}
	return site.EnvProduction, nil
}

func (r *Resolver) AvailableLocales(ctx context.Context) ([]locale.Code, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.AvailableLocales(), nil
}

func (r *Resolver) DefaultLocale(ctx context.Context) (locale.Code, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return s.DefaultLocale(), nil
}

// FallbackLocales returns every configured fallback chain.
func (r *Resolver) FallbackLocales(ctx context.Context) (map[locale.Code][]locale.Code, error) {
	s, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.FallbackMap(), nil
}

// Snapshot returns the memoised snapshot, loading it on first use.
func (r *Resolver) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap != nil {
		return r.snap, nil
	}
	s, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	r.snap = s
	return s, nil
}

// Invalidate drops the memoised snapshot and the shared cache entry.
func (r *Resolver) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
	return r.store.Invalidate(ctx)
}

// AsSource adapts r to translation.LocaleSource for the lifetime of ctx.
func (r *Resolver) AsSource(ctx context.Context) translation.LocaleSource {
	return source{r: r, ctx: ctx}
}

type source struct {
	r   *Resolver
	ctx context.Context
}

func (s source) CurrentLocale(useContextFallback bool) (locale.Code, error) {
	return s.r.ResolveLocale(s.ctx, useContextFallback)
}

// FallbackLocales yields nil when the snapshot cannot be loaded; the value
// then falls through to its first entry.
func (s source) FallbackLocales(code locale.Code) []locale.Code {
	snap, err := s.r.Snapshot(s.ctx)
	if err != nil {
		return nil
	}
	return snap.FallbackLocales(code)
}
