// internal/middleware/headers.go
//
// Locale-aware response headers.
//
// Injects, before the handler runs:
//
//   - Content-Language          the resolved request locale
//   - Strict-Transport-Security only for domains served over https
//   - X-Robots-Tag              "noindex" outside production
//
// Notes
// -----
//   - Must run inside resolver.Middleware; without a request Resolver it
//     is a no-op.
//   - Handlers may overwrite any of these headers.
//   - Resolution failures are left for the handler to report.
package middleware

import (
	"net/http"

	"github.com/yanizio/adept-locale/internal/resolver"
	"github.com/yanizio/adept-locale/internal/site"
)

const hsts = "max-age=63072000; includeSubDomains"

// Headers sets Content-Language, HSTS and X-Robots-Tag from the resolver.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := resolver.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		h := w.Header()

		if code, err := res.ResolveLocale(ctx, false); err == nil {
			h.Set("Content-Language", code.String())
		}
		if snap, err := res.Snapshot(ctx); err == nil && snap.Scheme(res.Host()) == "https" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if env, err := res.Environment(ctx); err == nil && env != site.EnvProduction {
			h.Set("X-Robots-Tag", "noindex, nofollow")
		}

		next.ServeHTTP(w, r)
	})
}
