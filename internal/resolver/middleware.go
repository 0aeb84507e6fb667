// internal/resolver/middleware.go
//
// HTTP entry point for the resolver.
//
// Workflow
// --------
//  1. Build a fresh Resolver for the request.
//  2. Ingest the Host header and the `locale` query parameter.
//  3. A malformed `locale` is never an error page.  When nothing has been
//     written yet the client is sent (302) to the same URL without the
//     parameter; otherwise the parameter is ignored and a warning logged.
//  4. Store the Resolver in the request context for handlers.
package resolver

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/adept-locale/internal/metrics"
)

// QueryParam is the URL parameter carrying a locale override.
const QueryParam = "locale"

type ctxKey struct{}

// NewContext returns ctx carrying r.
func NewContext(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the request Resolver stored by Middleware.
func FromContext(ctx context.Context) (*Resolver, bool) {
	r, ok := ctx.Value(ctxKey{}).(*Resolver)
	return r, ok
}

// Middleware attaches a request-scoped Resolver.  A nil log means zap.L().
func Middleware(store SnapshotStore, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := log
			if l == nil {
				l = zap.L()
			}
			res := New(store)

			var q *string
			if vals, ok := req.URL.Query()[QueryParam]; ok && len(vals) > 0 {
				q = &vals[0]
			}
			if fe := res.Ingest(req.Host, q); fe != nil {
				metrics.InvalidLocaleParamTotal.Inc()
				if !responseStarted(w) {
					target := withoutParam(req, QueryParam)
					l.Debug("invalid locale parameter, redirecting",
						zap.String("input", fe.Input), zap.String("target", target))
					http.Redirect(w, req, target, http.StatusFound)
					return
				}
				l.Warn("invalid locale parameter ignored, response already started",
					zap.String("input", fe.Input), zap.String("host", res.Host()))
			}

			next.ServeHTTP(w, req.WithContext(NewContext(req.Context(), res)))
		})
	}
}

// responseStarted recognises writers that report their status, such as
// chi's middleware.WrapResponseWriter.  Unknown writers count as fresh.
func responseStarted(w http.ResponseWriter) bool {
	if sw, ok := w.(interface{ Status() int }); ok {
		return sw.Status() != 0
	}
	return false
}

// withoutParam returns the request URI with every `name` parameter removed.
func withoutParam(req *http.Request, name string) string {
	u := *req.URL
	q := u.Query()
	q.Del(name)
	u.RawQuery = q.Encode()
	return u.RequestURI()
}
