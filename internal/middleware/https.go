// Package middleware holds small, composable HTTP wrappers driven by the
// localization snapshot.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/snapshot"
)

// SnapshotSource is satisfied by *snapshot.Store.
type SnapshotSource interface {
	Get(ctx context.Context) (*snapshot.Snapshot, error)
}

// ForceHTTPS redirects a registered domain to its canonical origin.  The
// snapshot decides the scheme and whether the host carries "www.".  A
// request is redirected (308) when its scheme or its www prefix differs
// from that origin.  localhost, unknown hosts, and snapshot failures pass
// through unchanged.
func ForceHTTPS(store SnapshotSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.ToLower(resolver.StripPort(r.Host))
			host := strings.TrimPrefix(raw, "www.")
			if host == "localhost" {
				next.ServeHTTP(w, r)
				return
			}

			snap, err := requestSnapshot(r, store)
			if err != nil {
				zap.L().Warn("https check skipped", zap.String("host", host), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !snap.Known(host) {
				next.ServeHTTP(w, r)
				return
			}

			wantHTTPS := snap.Scheme(host) == "https"
			wantWWW := snap.UseWWW(host)
			hasWWW := raw != host
			if wantHTTPS == isHTTPS(r) && wantWWW == hasWWW {
				next.ServeHTTP(w, r)
				return
			}

			target := snap.CanonicalBase(host) + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

// isHTTPS trusts X-Forwarded-Proto so TLS can terminate at a proxy.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// requestSnapshot prefers the memoised snapshot of the request resolver so
// one request decodes the shared entry once.
func requestSnapshot(r *http.Request, store SnapshotSource) (*snapshot.Snapshot, error) {
	if res, ok := resolver.FromContext(r.Context()); ok {
		return res.Snapshot(r.Context())
	}
	return store.Get(r.Context())
}
